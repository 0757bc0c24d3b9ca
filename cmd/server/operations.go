package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/portcall/internal/fleet"
)

// filterEcho carries the raw filter parameters back to the list page so the
// form keeps its state, including values the filter parser dropped.
type filterEcho struct {
	ShipIDs   string
	StartDate string
	EndDate   string
	PortID    string
	SortOrder string
}

type listViewData struct {
	Operations []fleet.Operation
	Ships      []fleet.Lookup
	Ports      []fleet.Lookup
	Selected   filterEcho
}

type operationFormViewData struct {
	Operation   fleet.Operation
	Ships       []fleet.Lookup
	Ports       []fleet.Lookup
	Contractors []fleet.Lookup
	Pollutants  []fleet.Lookup
	Amounts     map[int64]fleet.LineItem
}

func (s *server) handleOperationList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	operations, err := s.store.ListOperations(fleet.ParseFilter(query))
	if err != nil {
		http.Error(w, "failed to load operations", http.StatusInternalServerError)
		return
	}
	ships, err := s.store.Ships()
	if err != nil {
		http.Error(w, "failed to load ships", http.StatusInternalServerError)
		return
	}
	ports, err := s.store.Ports()
	if err != nil {
		http.Error(w, "failed to load ports", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "list.html", listViewData{
		Operations: operations,
		Ships:      ships,
		Ports:      ports,
		Selected: filterEcho{
			ShipIDs:   query.Get("ship_ids"),
			StartDate: query.Get("start_date"),
			EndDate:   query.Get("end_date"),
			PortID:    query.Get("port_id"),
			SortOrder: query.Get("sort_order"),
		},
	})
}

type pollutantJSON struct {
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
	Cost   float64 `json:"cost"`
}

type operationJSON struct {
	ID           int64           `json:"id"`
	Ship         string          `json:"ship"`
	Port         string          `json:"port"`
	Contractor   string          `json:"contractor"`
	Date         string          `json:"date"`
	HasDocuments bool            `json:"has_documents"`
	Pollutants   []pollutantJSON `json:"pollutants"`
	TotalCost    float64         `json:"total_cost"`
}

func (s *server) handleOperationDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := operationID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	op, err := s.store.GetOperation(id)
	if errors.Is(err, fleet.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load operation", http.StatusInternalServerError)
		return
	}

	payload := operationJSON{
		ID:           op.ID,
		Ship:         op.Ship,
		Port:         op.Port,
		Contractor:   op.Contractor,
		Date:         op.Date,
		HasDocuments: op.HasDocuments,
		Pollutants:   make([]pollutantJSON, 0, len(op.Items)),
		TotalCost:    op.TotalCost(),
	}
	for _, item := range op.Items {
		payload.Pollutants = append(payload.Pollutants, pollutantJSON{
			Name:   item.PollutantName,
			Volume: item.Volume,
			Cost:   item.Cost,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode operation %d: %v", op.ID, err)
	}
}

func (s *server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	data, err := s.formViewData(fleet.Operation{})
	if err != nil {
		http.Error(w, "failed to load form data", http.StatusInternalServerError)
		return
	}
	s.renderTemplate(w, "create.html", data)
}

func (s *server) handleCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	pollutants, err := s.store.Pollutants()
	if err != nil {
		http.Error(w, "failed to load pollutants", http.StatusInternalServerError)
		return
	}

	op, skipped, err := parseOperationForm(r, pollutants)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logSkipped(skipped)

	if _, err := s.store.CreateOperation(op); err != nil {
		http.Error(w, "failed to create operation", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := operationID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	op, err := s.store.GetOperation(id)
	if errors.Is(err, fleet.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load operation", http.StatusInternalServerError)
		return
	}

	data, err := s.formViewData(op)
	if err != nil {
		http.Error(w, "failed to load form data", http.StatusInternalServerError)
		return
	}
	s.renderTemplate(w, "edit.html", data)
}

func (s *server) handleEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := operationID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	// An unknown id is a 404 no matter what the body looks like.
	if _, err := s.store.GetOperation(id); errors.Is(err, fleet.ErrNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		http.Error(w, "failed to load operation", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	pollutants, err := s.store.Pollutants()
	if err != nil {
		http.Error(w, "failed to load pollutants", http.StatusInternalServerError)
		return
	}

	op, skipped, err := parseOperationForm(r, pollutants)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logSkipped(skipped)

	op.ID = id
	err = s.store.UpdateOperation(op)
	if errors.Is(err, fleet.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to update operation", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := operationID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	err := s.store.DeleteOperation(id)
	if errors.Is(err, fleet.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to delete operation", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) formViewData(op fleet.Operation) (operationFormViewData, error) {
	ships, err := s.store.Ships()
	if err != nil {
		return operationFormViewData{}, err
	}
	ports, err := s.store.Ports()
	if err != nil {
		return operationFormViewData{}, err
	}
	contractors, err := s.store.Contractors()
	if err != nil {
		return operationFormViewData{}, err
	}
	pollutants, err := s.store.Pollutants()
	if err != nil {
		return operationFormViewData{}, err
	}

	amounts := make(map[int64]fleet.LineItem, len(op.Items))
	for _, item := range op.Items {
		amounts[item.PollutantID] = item
	}

	return operationFormViewData{
		Operation:   op,
		Ships:       ships,
		Ports:       ports,
		Contractors: contractors,
		Pollutants:  pollutants,
		Amounts:     amounts,
	}, nil
}

func operationID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// skippedField records a line-item field that failed numeric parsing and was
// dropped from the submission. The rest of the submission still commits.
type skippedField struct {
	PollutantID int64
	Field       string
	Value       string
}

// parseOperationForm maps the submitted form onto an operation. The main
// fields are required and validated; the dynamic volume_{id}/cost_{id} pairs
// are collected per known pollutant, with unparsable pairs skipped and
// reported, and all-zero pairs dropped.
func parseOperationForm(r *http.Request, pollutants []fleet.Lookup) (fleet.Operation, []skippedField, error) {
	var op fleet.Operation
	var err error

	if op.ShipID, err = parseRefID(r.FormValue("ship_id"), "ship_id"); err != nil {
		return op, nil, err
	}
	if op.PortID, err = parseRefID(r.FormValue("port_id"), "port_id"); err != nil {
		return op, nil, err
	}
	if op.ContractorID, err = parseRefID(r.FormValue("contractor_id"), "contractor_id"); err != nil {
		return op, nil, err
	}

	op.Date = strings.TrimSpace(r.FormValue("date"))
	if _, err := time.Parse(fleet.DateLayout, op.Date); err != nil {
		return op, nil, fmt.Errorf("date must be YYYY-MM-DD")
	}

	op.HasDocuments = r.FormValue("has_documents") == "1"

	var skipped []skippedField
	for _, pollutant := range pollutants {
		volumeRaw := r.FormValue(fmt.Sprintf("volume_%d", pollutant.ID))
		costRaw := r.FormValue(fmt.Sprintf("cost_%d", pollutant.ID))

		volume, err := parseAmount(volumeRaw)
		if err != nil {
			skipped = append(skipped, skippedField{PollutantID: pollutant.ID, Field: "volume", Value: volumeRaw})
			continue
		}
		cost, err := parseAmount(costRaw)
		if err != nil {
			skipped = append(skipped, skippedField{PollutantID: pollutant.ID, Field: "cost", Value: costRaw})
			continue
		}
		if volume <= 0 && cost <= 0 {
			continue
		}

		op.Items = append(op.Items, fleet.LineItem{
			PollutantID:   pollutant.ID,
			PollutantName: pollutant.Name,
			Volume:        volume,
			Cost:          cost,
		})
	}

	return op, skipped, nil
}

func parseRefID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive id", field)
	}
	return id, nil
}

// parseAmount treats an absent field as zero; non-numeric and negative
// values are rejected.
func parseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative value: %q", raw)
	}
	return value, nil
}

func logSkipped(skipped []skippedField) {
	for _, sk := range skipped {
		log.Printf("skipping line item: pollutant=%d field=%s value=%q", sk.PollutantID, sk.Field, sk.Value)
	}
}
