package app

import (
	"testing"

	"petla/internal/domain/citas"
	"petla/internal/domain/fechas"
	"petla/internal/domain/mascotas"
	"petla/internal/domain/usuarios"
	"petla/internal/storage"
)

func TestValidarRelaciones_DetectaLasTresClases(t *testing.T) {
	kv := storage.NewMemoria(0)
	suprimirMigraciones(t, kv)
	sembrar(t, kv, usuarios.Clave, []usuarios.Usuario{clienteAna()})
	sembrar(t, kv, mascotas.Clave, []mascotas.Mascota{
		{ID: "m1", Nombre: "Boby", Especie: "Perro", Estado: "Activa", ClienteID: "u-ana"},
		{ID: "m2", Nombre: "Pelusa", Especie: "Gato", Estado: "Activa", ClienteID: "u-borrado"}, // huérfana
	})
	sembrar(t, kv, citas.Clave, []citas.Cita{
		// incompleta: existe la mascota pero faltan los campos de backfill
		{ID: "c1", Mascota: "Boby", Fecha: fechas.Nueva(ahoraTest), Estado: citas.EstadoConfirmada},
		// fantasma: nombra una mascota que no existe
		{ID: "c2", Mascota: "Rocky", MascotaID: "nope", ClienteID: "u-ana", ClienteNombre: "Ana Paz",
			Fecha: fechas.Nueva(ahoraTest), Estado: citas.EstadoConfirmada},
	})

	c := nuevoContexto(t, kv)
	rep := c.ValidarRelaciones()

	if rep.Consistente() {
		t.Fatalf("el estado sembrado no es consistente")
	}
	if len(rep.MascotasHuerfanas) != 1 {
		t.Fatalf("huérfanas = %v, quiere 1", rep.MascotasHuerfanas)
	}
	if len(rep.CitasIncompletas) != 1 {
		t.Fatalf("incompletas = %v, quiere 1", rep.CitasIncompletas)
	}
	if len(rep.MascotasFantasma) != 1 || rep.MascotasFantasma[0] != "Rocky" {
		t.Fatalf("fantasmas = %v, quiere [Rocky]", rep.MascotasFantasma)
	}

	// El diagnóstico y el motor de reparación ven las mismas violaciones:
	// después de reparar, el reporte queda en cero.
	c.RepararIntegridad()
	if rep := c.ValidarRelaciones(); !rep.Consistente() {
		t.Fatalf("tras reparar debería quedar consistente: %+v", rep)
	}
}

func TestCitasConRelaciones_ResuelvePorNombre(t *testing.T) {
	kv := storage.NewMemoria(0)
	suprimirMigraciones(t, kv)
	sembrar(t, kv, usuarios.Clave, []usuarios.Usuario{clienteAna()})
	sembrar(t, kv, mascotas.Clave, []mascotas.Mascota{
		{ID: "m1", Nombre: "Boby", Especie: "Perro", Estado: "Activa", ClienteID: "u-ana"},
	})
	sembrar(t, kv, citas.Clave, []citas.Cita{
		// sin mascotaId: el join cae al nombre, case-insensitive
		{ID: "c1", Mascota: "  boby ", Fecha: fechas.Nueva(ahoraTest), Estado: citas.EstadoConfirmada},
		{ID: "c2", Mascota: "Desconocida", Fecha: fechas.Nueva(ahoraTest), Estado: citas.EstadoConfirmada},
	})

	c := nuevoContexto(t, kv)
	filas := c.CitasConRelaciones()
	if len(filas) != 2 {
		t.Fatalf("filas = %d", len(filas))
	}

	porID := map[string]CitaConRelaciones{}
	for _, f := range filas {
		porID[f.Cita.ID] = f
	}

	conJoin := porID["c1"]
	if conJoin.Mascota == nil || conJoin.Mascota.ID != "m1" {
		t.Fatalf("c1 debería resolver a Boby por nombre: %+v", conJoin.Mascota)
	}
	if conJoin.Dueno == nil || conJoin.Dueno.ID != "u-ana" {
		t.Fatalf("c1 debería resolver al dueño: %+v", conJoin.Dueno)
	}

	sinJoin := porID["c2"]
	if sinJoin.Mascota != nil || sinJoin.Dueno != nil {
		t.Fatalf("c2 no debería resolver nada: %+v", sinJoin)
	}
}

func TestDuenosConMascotas(t *testing.T) {
	kv := storage.NewMemoria(0)
	suprimirMigraciones(t, kv)
	sembrar(t, kv, usuarios.Clave, []usuarios.Usuario{
		clienteAna(),
		{ID: "u-vet", Nombre: "Sofía", Email: "vet@clinic.com", Rol: usuarios.RolVeterinario},
	})
	sembrar(t, kv, mascotas.Clave, []mascotas.Mascota{
		{ID: "m1", Nombre: "Boby", Especie: "Perro", Estado: "Activa", ClienteID: "u-ana"},
		{ID: "m2", Nombre: "Michi", Especie: "Gato", Estado: "Activa", ClienteID: "u-ana"},
	})

	c := nuevoContexto(t, kv)
	filas := c.DuenosConMascotas()

	// solo clientes: el veterinario no es dueño
	if len(filas) != 1 {
		t.Fatalf("filas = %d, quiere 1", len(filas))
	}
	if filas[0].Dueno.ID != "u-ana" || len(filas[0].Mascotas) != 2 {
		t.Fatalf("join dueño+mascotas: %+v", filas[0])
	}
}

func TestEstadisticas(t *testing.T) {
	kv := storage.NewMemoria(0)
	suprimirMigraciones(t, kv)
	sembrar(t, kv, usuarios.Clave, []usuarios.Usuario{
		clienteAna(),
		{ID: "u-vet", Nombre: "Sofía", Email: "vet@clinic.com", Rol: usuarios.RolVeterinario},
	})
	sembrar(t, kv, mascotas.Clave, []mascotas.Mascota{
		{ID: "m1", Nombre: "Boby", Especie: "Perro", Estado: "Activa", ClienteID: "u-ana"},
	})
	ultima := fechas.Nueva(ahoraTest.AddDate(0, -1, 0))
	sembrar(t, kv, citas.Clave, []citas.Cita{
		{ID: "c1", Mascota: "Boby", MascotaID: "m1", ClienteID: "u-ana", ClienteNombre: "Ana Paz",
			Fecha: fechas.Nueva(ahoraTest.AddDate(0, -2, 0)), Estado: citas.EstadoAtendida},
		{ID: "c2", Mascota: "Boby", MascotaID: "m1", ClienteID: "u-ana", ClienteNombre: "Ana Paz",
			Fecha: ultima, Estado: citas.EstadoAtendida},
		{ID: "c3", Mascota: "Boby", MascotaID: "m1", ClienteID: "u-ana", ClienteNombre: "Ana Paz",
			Fecha: fechas.Nueva(ahoraTest.AddDate(0, 1, 0)), Estado: citas.EstadoConfirmada},
	})

	c := nuevoContexto(t, kv)
	st := c.Estadisticas()

	if st.TotalUsuarios != 2 || st.TotalClientes != 1 {
		t.Fatalf("usuarios=%d clientes=%d", st.TotalUsuarios, st.TotalClientes)
	}
	if st.TotalMascotas != 1 || st.TotalCitas != 3 {
		t.Fatalf("mascotas=%d citas=%d", st.TotalMascotas, st.TotalCitas)
	}
	if st.CitasPorEstado[citas.EstadoAtendida] != 2 || st.CitasPorEstado[citas.EstadoConfirmada] != 1 {
		t.Fatalf("citasPorEstado = %v", st.CitasPorEstado)
	}
	if st.UltimaVisita == nil || !st.UltimaVisita.Igual(ultima) {
		t.Fatalf("UltimaVisita = %v, quiere %v", st.UltimaVisita, ultima)
	}
}
