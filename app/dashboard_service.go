package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"inspectdash/domain/core"
	"inspectdash/domain/inspection"
	"inspectdash/internal/analysis"
	"inspectdash/internal/dataset"
	apperrors "inspectdash/internal/errors"
	"inspectdash/ports"
)

// DatasetSource provides the current normalized record set
type DatasetSource interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
	Invalidate()
}

// DashboardService builds the dashboard and owner portal view models.
// It holds no state of its own: every call starts from the loader's cached
// record set and derives fresh views from it.
type DashboardService struct {
	source   DatasetSource
	evidence ports.EvidenceStore
	logger   *zap.Logger
}

// DashboardView is everything the main dashboard page renders
type DashboardView struct {
	Selection analysis.Selection       `json:"selection"`
	Options   analysis.Options         `json:"options"`
	Summary   analysis.Summary         `json:"summary"`
	Owners    []string                 `json:"owners"`
	Records   *inspection.RecordSet    `json:"-"`
	Source    inspection.Source        `json:"source"`
	Report    analysis.NormalizeReport `json:"report"`
}

// EvidenceSlot pairs a pending observation with its uploaded preview, if any
type EvidenceSlot struct {
	Observation inspection.Observation `json:"observation"`
	Preview     *inspection.Preview    `json:"preview,omitempty"`
}

// OwnerView is the owner portal for one responsible party
type OwnerView struct {
	Selection analysis.Selection   `json:"selection"`
	Options   analysis.Options     `json:"options"`
	Owners    []string             `json:"owners"`
	Detail    analysis.OwnerDetail `json:"detail"`
	Slots     []EvidenceSlot       `json:"slots"`
	Selected  bool                 `json:"selected"`
}

// NewDashboardService creates a dashboard service
func NewDashboardService(source DatasetSource, evidence ports.EvidenceStore, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		source:   source,
		evidence: evidence,
		logger:   logger.Named("dashboard"),
	}
}

// Dashboard filters the record set by sel and aggregates the result
func (s *DashboardService) Dashboard(ctx context.Context, sel analysis.Selection) (*DashboardView, error) {
	start := time.Now()
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	view := analysis.Apply(ds.Records, sel)
	result := &DashboardView{
		Selection: sel,
		Options:   analysis.SelectorOptions(ds.Records),
		Summary:   analysis.Summarize(view),
		Owners:    analysis.OwnerOptions(view),
		Records:   view,
		Source:    ds.Records.Source,
		Report:    ds.Report,
	}

	s.logger.Debug("dashboard computed",
		zap.String("month", sel.Month),
		zap.String("section", sel.Section),
		zap.Int("rows", result.Summary.Total),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Options returns the selector domains of the unfiltered record set
func (s *DashboardService) Options(ctx context.Context) (analysis.Options, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.SelectorOptions(ds.Records), nil
}

// Owner returns owner's pending observations within sel, each with its
// evidence preview. An unselected owner yields an empty, unselected view.
func (s *DashboardService) Owner(ctx context.Context, sel analysis.Selection, owner string) (*OwnerView, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	view := analysis.Apply(ds.Records, sel)
	result := &OwnerView{
		Selection: sel,
		Options:   analysis.SelectorOptions(ds.Records),
		Owners:    analysis.OwnerOptions(view),
		Slots:     []EvidenceSlot{},
		Selected:  analysis.IsOwnerSelected(owner),
	}
	if !result.Selected {
		result.Detail = analysis.OwnerDetail{Pending: []inspection.Observation{}}
		return result, nil
	}

	result.Detail = analysis.Owner(view, owner)
	var previews map[core.RowKey]inspection.Preview
	if s.evidence != nil {
		keys := make([]core.RowKey, 0, len(result.Detail.Pending))
		for _, o := range result.Detail.Pending {
			keys = append(keys, o.Key)
		}
		previews = s.evidence.Snapshot(ds.Records.Source.Hash, keys)
	}
	for _, o := range result.Detail.Pending {
		slot := EvidenceSlot{Observation: o}
		if preview, ok := previews[o.Key]; ok {
			slot.Preview = &preview
		}
		result.Slots = append(result.Slots, slot)
	}
	return result, nil
}

// Reload drops the cached record set and loads the data file again
func (s *DashboardService) Reload(ctx context.Context) (inspection.Source, error) {
	s.source.Invalidate()
	ds, err := s.source.Load(ctx)
	if err != nil {
		return inspection.Source{}, err
	}
	s.logger.Info("data file reloaded on request",
		zap.String("hash", ds.Records.Source.Hash.Short()),
		zap.Int("rows", ds.Records.Len()))
	return ds.Records.Source, nil
}

// Observation returns the observation with the given row key
func (s *DashboardService) Observation(ctx context.Context, key core.RowKey) (inspection.Observation, error) {
	_, o, err := s.find(ctx, key)
	return o, err
}

// find loads the current record set and looks key up in it
func (s *DashboardService) find(ctx context.Context, key core.RowKey) (*dataset.Dataset, inspection.Observation, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, inspection.Observation{}, err
	}
	o, ok := ds.Records.Find(key)
	if !ok {
		notFound := apperrors.NotFound(fmt.Sprintf("observation %s", key))
		notFound.Cause = core.ErrObservationNotFound
		return nil, inspection.Observation{}, notFound
	}
	return ds, o, nil
}

// UploadEvidence stores a photo preview for the observation at key. The
// photo is kept in memory only, tied to the data file version it was
// uploaded against.
func (s *DashboardService) UploadEvidence(ctx context.Context, key core.RowKey, filename string, content []byte) (*inspection.Preview, error) {
	ds, o, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	preview, err := s.evidence.Put(ctx, inspection.Upload{
		Source:   ds.Records.Source.Hash,
		Key:      o.Key,
		Filename: filename,
		Content:  content,
	})
	if err != nil {
		return nil, evidenceError(err)
	}
	return preview, nil
}

// ConfirmEvidence acknowledges the preview for key
func (s *DashboardService) ConfirmEvidence(ctx context.Context, key core.RowKey) (*inspection.Preview, error) {
	ds, _, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	preview, err := s.evidence.Confirm(ctx, ds.Records.Source.Hash, key)
	if err != nil {
		return nil, evidenceError(err)
	}
	return preview, nil
}

// Preview returns the stored preview for key in the current data file version
func (s *DashboardService) Preview(ctx context.Context, key core.RowKey) (*inspection.Preview, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	preview, err := s.evidence.Get(ctx, ds.Records.Source.Hash, key)
	if err != nil {
		return nil, evidenceError(err)
	}
	return preview, nil
}

// evidenceError attaches an application error code to store errors
func evidenceError(err error) error {
	switch {
	case core.IsNotFoundError(err):
		return &apperrors.AppError{Code: apperrors.CodeNotFound, Message: "no photo uploaded", Cause: err}
	case core.IsValidationError(err):
		return &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: "photo rejected", Cause: err}
	default:
		return apperrors.Wrap(err, "evidence store failed")
	}
}
