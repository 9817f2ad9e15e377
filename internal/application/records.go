package application

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"vitalnotes/internal/domain"
	"vitalnotes/internal/ports"
)

const (
	opList   = "list"
	opSave   = "save"
	opDelete = "delete"

	msgListFailed   = "Failed to load patient records from server."
	msgSaveFailed   = "Failed to save patient record."
	msgDeleteFailed = "Failed to delete patient."
)

var errMissingID = fmt.Errorf("%w: saved record has no id", domain.ErrInvalidServerResponse)

// RecordSync keeps an ordered local projection of the remote patient
// collection. The server's responses are authoritative; network calls are
// not serialized against each other, so the last response to land wins.
type RecordSync struct {
	api    ports.PatientAPI
	logger ports.Logger

	mu         sync.Mutex
	records    []domain.Patient
	err        error
	generation uint64
}

func NewRecordSync(api ports.PatientAPI, logger ports.Logger) *RecordSync {
	return &RecordSync{api: api, logger: logger}
}

func (r *RecordSync) Records() []domain.Patient {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.records)
}

// Err returns the error state of the last failed operation, if any.
func (r *RecordSync) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Reset drops the cache and error state. Responses to requests issued
// before the reset are discarded when they arrive.
func (r *RecordSync) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	r.err = nil
	r.generation++
}

// Follow resets the cache whenever the session changes hands or ends.
func (r *RecordSync) Follow(sessions *SessionStore) {
	sessions.OnChange(func(domain.Session, bool) { r.Reset() })
}

func (r *RecordSync) List(ctx context.Context) error {
	gen := r.begin()
	records, err := r.api.ListPatients(ctx)
	if err != nil {
		return r.fail(ctx, gen, opList, msgListFailed, err)
	}
	if records == nil {
		records = []domain.Patient{}
	}
	r.apply(gen, func() { r.records = records })
	return nil
}

func (r *RecordSync) Create(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	gen := r.begin()
	patient.ID = nil
	created, err := r.api.CreatePatient(ctx, patient)
	if err == nil && !created.HasID() {
		err = errMissingID
	}
	if err != nil {
		return domain.Patient{}, r.fail(ctx, gen, opSave, msgSaveFailed, err)
	}
	r.apply(gen, func() { r.records = append(r.records, created) })
	return created, nil
}

// Update sends the record at index merged with patch. It reports false
// without touching the network when there is no saved record at index.
func (r *RecordSync) Update(ctx context.Context, index int, patch domain.PatientPatch) (domain.Patient, bool, error) {
	gen := r.begin()
	existing, ok := r.saved(ctx, index, "update")
	if !ok {
		return domain.Patient{}, false, nil
	}
	updated, err := r.api.UpdatePatient(ctx, *existing.ID, patch.Apply(existing))
	if err == nil && !updated.HasID() {
		err = errMissingID
	}
	if err != nil {
		return domain.Patient{}, true, r.fail(ctx, gen, opSave, msgSaveFailed, err)
	}
	r.apply(gen, func() {
		if i := r.indexOf(*existing.ID, index); i >= 0 {
			r.records[i] = updated
		}
	})
	return updated, true, nil
}

func (r *RecordSync) Delete(ctx context.Context, index int) (bool, error) {
	gen := r.begin()
	target, ok := r.saved(ctx, index, "delete")
	if !ok {
		return false, nil
	}
	if err := r.api.DeletePatient(ctx, *target.ID); err != nil {
		return true, r.fail(ctx, gen, opDelete, msgDeleteFailed, err)
	}
	r.apply(gen, func() {
		if i := r.indexOf(*target.ID, index); i >= 0 {
			r.records = slices.Delete(r.records, i, i+1)
		}
	})
	return true, nil
}

func (r *RecordSync) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = nil
	return r.generation
}

func (r *RecordSync) saved(ctx context.Context, index int, op string) (domain.Patient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.records) {
		r.logger.Warn(ctx, "no patient record at index", "op", op, "index", index)
		return domain.Patient{}, false
	}
	record := r.records[index]
	if !record.HasID() {
		r.logger.Warn(ctx, "patient record has no server id", "op", op, "index", index)
		return domain.Patient{}, false
	}
	return record, true
}

// indexOf prefers hint when it still holds id. Caller holds mu.
func (r *RecordSync) indexOf(id int64, hint int) int {
	if hint >= 0 && hint < len(r.records) && r.records[hint].ID != nil && *r.records[hint].ID == id {
		return hint
	}
	for i, record := range r.records {
		if record.ID != nil && *record.ID == id {
			return i
		}
	}
	return -1
}

func (r *RecordSync) apply(gen uint64, mutate func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return
	}
	mutate()
}

func (r *RecordSync) fail(ctx context.Context, gen uint64, op, message string, cause error) error {
	r.logger.Error(ctx, "patient record operation failed", "op", op, "error", cause)
	syncErr := &domain.SyncError{Op: op, Message: message, Err: cause}
	r.apply(gen, func() { r.err = syncErr })
	return syncErr
}
