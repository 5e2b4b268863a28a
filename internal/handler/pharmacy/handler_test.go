package pharmacy

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/handler/handlertest"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/pharmacy"
)

func setup(t *testing.T) *handlertest.Env {
	t.Helper()
	env := handlertest.New(t)
	svc := pharmacy.NewService(env.Store.Prescriptions(), env.Store.Drugs(), env.Store.Users(), env.Notifier)
	return env.Mount(NewHandler(svc))
}

func TestDrugCatalog(t *testing.T) {
	env := setup(t)
	pharmacist := env.Store.Seed(model.RolePharmacist, "pharm")
	doctor := env.Store.Seed(model.RoleDoctor, "doc")

	drug := model.DrugRequest{Name: "Amoxicillin", Description: "500mg capsules", Price: 12.499, StockQuantity: 40}

	w, body := env.Do(t, http.MethodPost, "/api/v1/pharmacy/drugs/create", doctor, drug)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only pharmacists can add drugs", body.Message)

	w, body = env.Do(t, http.MethodPost, "/api/v1/pharmacy/drugs/create", pharmacist, drug)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created model.Drug
	handlertest.DecodeData(t, body, &created)
	assert.InDelta(t, 12.50, created.Price, 0.001)

	w, body = env.Do(t, http.MethodPost, "/api/v1/pharmacy/drugs/create", pharmacist, drug)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A drug with this name already exists", body.Message)

	// the catalog is public
	w, body = env.Do(t, http.MethodGet, "/api/v1/pharmacy/drugs/list", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var drugs []model.Drug
	handlertest.DecodeData(t, body, &drugs)
	require.Len(t, drugs, 1)

	w, body = env.Do(t, http.MethodGet, "/api/v1/pharmacy/drugs/search?name=amox", pharmacist, nil)
	require.Equal(t, http.StatusOK, w.Code)
	handlertest.DecodeData(t, body, &drugs)
	assert.Len(t, drugs, 1)

	w, body = env.Do(t, http.MethodGet, "/api/v1/pharmacy/drugs/search?name=ibuprofen", pharmacist, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No matching drugs found; please report to manager to add it", body.Message)

	w, _ = env.Do(t, http.MethodGet, "/api/v1/pharmacy/drugs/search", pharmacist, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.Do(t, http.MethodGet, "/api/v1/pharmacy/drugs/search?name=amox", doctor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not allowed", body.Message)

	stock := 5
	w, body = env.Do(t, http.MethodPut, fmt.Sprintf("/api/v1/pharmacy/drugs/update/%d", created.ID), doctor,
		model.UpdateDrugRequest{StockQuantity: &stock})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only pharmacists can update drug details", body.Message)

	w, body = env.Do(t, http.MethodPut, fmt.Sprintf("/api/v1/pharmacy/drugs/update/%d", created.ID), pharmacist,
		model.UpdateDrugRequest{StockQuantity: &stock})
	require.Equal(t, http.StatusOK, w.Code)
	handlertest.DecodeData(t, body, &created)
	assert.Equal(t, 5, created.StockQuantity)
	assert.Equal(t, "Amoxicillin", created.Name)

	w, body = env.Do(t, http.MethodDelete, fmt.Sprintf("/api/v1/pharmacy/drugs/delete/%d", created.ID), pharmacist, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Drug deleted successfully", body.Message)

	w, _ = env.Do(t, http.MethodDelete, fmt.Sprintf("/api/v1/pharmacy/drugs/delete/%d", created.ID), pharmacist, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrescriptionFlow(t *testing.T) {
	env := setup(t)
	pharmacist := env.Store.Seed(model.RolePharmacist, "pharm")
	doctor := env.Store.Seed(model.RoleDoctor, "doc")
	patient := env.Store.Seed(model.RolePatient, "pat")

	req := model.PrescribeRequest{PatientID: patient.ID, MedicationName: "Ibuprofen", Dosage: "200mg"}

	w, body := env.Do(t, http.MethodPost, "/api/v1/pharmacy/prescribe", pharmacist, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only doctors can prescribe medication", body.Message)

	w, body = env.Do(t, http.MethodPost, "/api/v1/pharmacy/prescribe", doctor,
		model.PrescribeRequest{PatientID: pharmacist.ID, MedicationName: "Ibuprofen", Dosage: "200mg"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = env.Do(t, http.MethodPost, "/api/v1/pharmacy/prescribe", doctor, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rx model.Prescription
	handlertest.DecodeData(t, body, &rx)
	assert.Equal(t, model.PrescriptionStatusPending, rx.Status)

	notes := env.Store.NotificationsFor(pharmacist.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "New prescription for pat: Ibuprofen.", notes[0].Message)

	w, body = env.Do(t, http.MethodGet, "/api/v1/pharmacy/list", patient, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Prescription
	handlertest.DecodeData(t, body, &list)
	assert.Len(t, list, 1)

	path := fmt.Sprintf("/api/v1/pharmacy/update/%d", rx.ID)
	w, body = env.Do(t, http.MethodPut, path, doctor, map[string]string{"status": "dispensed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only pharmacists can update prescription status", body.Message)

	w, _ = env.Do(t, http.MethodPut, path, pharmacist, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.Do(t, http.MethodPut, path, pharmacist, map[string]string{"status": "dispensed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	handlertest.DecodeData(t, body, &rx)
	assert.Equal(t, model.PrescriptionStatusDispensed, rx.Status)

	notes = env.Store.NotificationsFor(patient.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "Your prescription for Ibuprofen is ready for pickup.", notes[0].Message)
}
