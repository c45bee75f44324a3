// Package badges resolves the badge assignments of a user into badge details
// read from the record store.
package badges

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/gdg-garage/badge-api/internal/config"
	"github.com/gdg-garage/badge-api/internal/metrics"
	"github.com/gdg-garage/badge-api/internal/models"
	"github.com/gdg-garage/badge-api/internal/notifier"
	"github.com/gdg-garage/badge-api/internal/records"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// MaxAssignments caps the number of assignment rows read per lookup.
const MaxAssignments = 20

const (
	// AlertInterval is the minimum gap between two upstream failure alerts.
	AlertInterval = time.Minute
	alertTimeout  = 10 * time.Second
)

// Fallback columns read when the configured issued-at field is empty.
var issuedAtFallbackFields = []string{"Date Assigned", "IssuedAt"}

// Service answers badge lookups against a records.Store. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	store       records.Store
	tables      config.Tables
	fields      config.Fields
	cfgErr      error
	concurrency int
	notifier    notifier.Notifier
	alerts      *rate.Sometimes
	logger      *zap.Logger
}

// NewService builds the lookup service. When cfg does not validate, every
// lookup fails with the validation error before the store is touched, so
// store may be nil in that case. notifier is optional.
func NewService(cfg *config.Config, store records.Store, notifier notifier.Notifier, logger *zap.Logger) *Service {
	concurrency := cfg.ResolveConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:       store,
		tables:      cfg.Tables,
		fields:      cfg.Fields,
		cfgErr:      cfg.Validate(),
		concurrency: concurrency,
		notifier:    notifier,
		alerts:      &rate.Sometimes{First: 1, Interval: AlertInterval},
		logger:      logger,
	}
}

// ResolveBadges returns the assignments of userID, optionally limited to
// sessionID, joined with their badge. Assignments whose badge cannot be
// resolved are left out.
func (s *Service) ResolveBadges(ctx context.Context, userID, sessionID string) (*models.BadgeLookupResult, error) {
	start := time.Now()
	result, err := s.resolve(ctx, userID, sessionID)

	outcome := outcomeOf(err)
	metrics.BadgeLookups.WithLabelValues(outcome).Inc()
	metrics.BadgeLookupDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		s.logger.Error("badge lookup failed",
			zap.String("user_id", userID),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		s.alertUpstreamFailure(userID, sessionID, err)
	}

	return result, err
}

// alertUpstreamFailure posts at most one alert per AlertInterval, in the
// background with its own deadline.
func (s *Service) alertUpstreamFailure(userID, sessionID string, cause error) {
	if s.notifier == nil {
		return
	}
	s.alerts.Do(func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
			defer cancel()
			if err := s.notifier.NotifyUpstreamFailure(ctx, userID, sessionID, cause); err != nil {
				s.logger.Warn("failed to send upstream failure alert", zap.Error(err))
			}
		}()
	})
}

func (s *Service) resolve(ctx context.Context, userID, sessionID string) (*models.BadgeLookupResult, error) {
	if s.cfgErr != nil {
		return nil, s.cfgErr
	}
	if userID == "" {
		return nil, &ValidationError{Message: "userId required"}
	}

	rows, err := s.store.Select(ctx, s.tables.Assignments, s.assignmentQuery(userID, sessionID))
	if err != nil {
		return nil, &UpstreamError{Op: "select assignments", Err: err}
	}

	assignments := make([]models.AssignmentRecord, 0, len(rows))
	refs := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		a := s.toAssignment(row)
		assignments = append(assignments, a)
		if a.BadgeRef == "" {
			continue
		}
		if _, ok := seen[a.BadgeRef]; !ok {
			seen[a.BadgeRef] = struct{}{}
			refs = append(refs, a.BadgeRef)
		}
	}

	badges, err := s.resolveRefs(ctx, refs)
	if err != nil {
		return nil, err
	}

	resolved := make([]models.ResolvedAssignment, 0, len(assignments))
	for _, a := range assignments {
		badge, ok := badges[a.BadgeRef]
		if !ok {
			continue
		}
		resolved = append(resolved, models.ResolvedAssignment{AssignmentRecord: a, Badge: badge})
	}
	sortNewestFirst(resolved)

	s.logger.Debug("badges resolved",
		zap.String("user_id", userID),
		zap.Int("assignments", len(assignments)),
		zap.Int("refs", len(refs)),
		zap.Int("resolved", len(resolved)),
	)

	return &models.BadgeLookupResult{Count: len(resolved), Assignments: resolved}, nil
}

func (s *Service) assignmentQuery(userID, sessionID string) records.Query {
	filter := records.Filter{{Field: s.fields.AssignmentUser, Value: userID}}
	if sessionID != "" {
		filter = append(filter, records.Condition{Field: s.fields.AssignmentSession, Value: sessionID})
	}

	q := records.Query{Filter: filter, MaxRecords: MaxAssignments}
	if s.fields.AssignmentIssuedAt != "" {
		q.Sort = []records.Sort{{Field: s.fields.AssignmentIssuedAt, Direction: records.Desc}}
	}
	return q
}

// resolveRefs resolves every reference once. With concurrency 1 the lookups
// run one after another in reference order.
func (s *Service) resolveRefs(ctx context.Context, refs []string) (map[string]models.BadgeRecord, error) {
	out := make(map[string]models.BadgeRecord, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			badge, ok, err := s.lookupByID(gctx, ref)
			if err != nil || !ok {
				return err
			}
			mu.Lock()
			out[ref] = *badge
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// lookupByID finds a badge by record id, falling back to a search on the
// badge id field when no record has that id.
func (s *Service) lookupByID(ctx context.Context, ref string) (*models.BadgeRecord, bool, error) {
	rec, err := s.store.Find(ctx, s.tables.Badges, ref)
	if err == nil {
		metrics.BadgeResolutions.WithLabelValues(metrics.PathDirect).Inc()
		badge := s.toBadge(rec)
		return &badge, true, nil
	}
	if !errors.Is(err, records.ErrNotFound) {
		return nil, false, &UpstreamError{Op: "find badge " + ref, Err: err}
	}

	matches, err := s.store.Select(ctx, s.tables.Badges, records.Query{
		Filter:     records.Filter{{Field: s.fields.BadgeID, Value: ref}},
		MaxRecords: 1,
	})
	if err != nil {
		return nil, false, &UpstreamError{Op: "search badge " + ref, Err: err}
	}
	if len(matches) == 0 {
		metrics.BadgeResolutions.WithLabelValues(metrics.PathUnresolved).Inc()
		s.logger.Debug("badge reference not resolved", zap.String("badge_ref", ref))
		return nil, false, nil
	}

	metrics.BadgeResolutions.WithLabelValues(metrics.PathFallback).Inc()
	badge := s.toBadge(matches[0])
	return &badge, true, nil
}

func (s *Service) toAssignment(row records.Record) models.AssignmentRecord {
	a := models.AssignmentRecord{
		ID:        row.ID,
		UserID:    row.String(s.fields.AssignmentUser),
		SessionID: row.String(s.fields.AssignmentSession),
		Status:    row.String(s.fields.AssignmentStatus),
		BadgeRef:  s.badgeRef(row),
	}
	if a.Status == "" {
		a.Status = models.DefaultAssignmentStatus
	}

	for _, field := range append([]string{s.fields.AssignmentIssuedAt}, issuedAtFallbackFields...) {
		if v := row.String(field); v != "" {
			a.IssuedAt = &v
			break
		}
	}
	return a
}

// badgeRef prefers the first linked badge record and falls back to the
// explicit badge id column.
func (s *Service) badgeRef(row records.Record) string {
	if _, isList := row.Value(s.fields.AssignmentBadgeLink).([]any); isList {
		if links := row.Strings(s.fields.AssignmentBadgeLink); len(links) > 0 {
			return links[0]
		}
	}
	return row.String(s.fields.AssignmentBadgeID)
}

func (s *Service) toBadge(rec records.Record) models.BadgeRecord {
	badge := models.BadgeRecord{
		ID:          rec.ID,
		BadgeID:     rec.String(s.fields.BadgeID),
		Name:        rec.String(s.fields.BadgeName),
		Description: rec.String(s.fields.BadgeDescription),
		ImageURL:    s.imageURL(rec),
		Criteria:    rec.String(s.fields.BadgeCriteria),
	}
	if badge.BadgeID == "" {
		badge.BadgeID = rec.ID
	}
	return badge
}

// imageURL reads the image field, which is either an attachment list or a
// plain URL, then the plain URL field.
func (s *Service) imageURL(rec records.Record) string {
	switch v := rec.Value(s.fields.BadgeImage).(type) {
	case []any:
		if len(v) > 0 {
			if attachment, ok := v[0].(map[string]any); ok {
				if url, ok := attachment["url"].(string); ok && url != "" {
					return url
				}
			}
		}
	case string:
		if v != "" {
			return v
		}
	}
	return rec.String(s.fields.BadgeImageURL)
}

var issuedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
}

func parseIssuedAt(v *string) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	for _, layout := range issuedAtLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sortNewestFirst orders by issuedAt descending. Rows without a parseable
// issuedAt go last and keep their store order.
func sortNewestFirst(items []models.ResolvedAssignment) {
	slices.SortStableFunc(items, func(a, b models.ResolvedAssignment) int {
		ta, okA := parseIssuedAt(a.IssuedAt)
		tb, okB := parseIssuedAt(b.IssuedAt)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}

func outcomeOf(err error) string {
	var (
		validationErr *ValidationError
		cfgErr        *config.ConfigurationError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &validationErr):
		return metrics.OutcomeInvalid
	case errors.As(err, &cfgErr):
		return metrics.OutcomeMisconfig
	default:
		return metrics.OutcomeUpstreamErr
	}
}
