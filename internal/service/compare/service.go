// Package compare drives comparison sessions: it opens two snapshots,
// proposes a configuration and runs the record diff over the selected tables.
package compare

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"recdiff/internal/diff"
	"recdiff/internal/domain"
	"recdiff/internal/inference"
	"recdiff/internal/source"
	"recdiff/internal/storage"
)

const (
	defaultMaxParallel = 4
	// inferenceSampleSize bounds the records inspected for value uniqueness
	// when no name-based key is found.
	inferenceSampleSize = 1000
)

// Session holds two opened database snapshots and the tables they share.
type Session struct {
	Source *source.Database
	Target *source.Database
	Common []string
	// Config is the configuration proposed when the session was loaded.
	Config *domain.ConfigSet
}

// Columns returns the columns of a common table: source columns first, then
// columns only the target has.
func (s *Session) Columns(table string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range []*domain.Table{s.Source.Table(table), s.Target.Table(table)} {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Schemas maps every common table to its columns.
func (s *Session) Schemas() map[string][]string {
	out := make(map[string][]string, len(s.Common))
	for _, name := range s.Common {
		out[name] = s.Columns(name)
	}
	return out
}

// ServiceDeps holds the collaborators of a Service. Nil fields get defaults.
type ServiceDeps struct {
	Registry    *source.Registry
	Resolver    *storage.Resolver
	Engine      *diff.Engine
	MaxParallel int
	Logger      *slog.Logger
}

// Service opens snapshots and runs comparisons.
type Service struct {
	registry    *source.Registry
	resolver    *storage.Resolver
	engine      *diff.Engine
	maxParallel int
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		registry:    deps.Registry,
		resolver:    deps.Resolver,
		engine:      deps.Engine,
		maxParallel: deps.MaxParallel,
		logger:      logger,
	}
	if s.registry == nil {
		s.registry = source.NewDefaultRegistry()
	}
	if s.resolver == nil {
		s.resolver = storage.NewResolver("", logger)
	}
	if s.engine == nil {
		s.engine = diff.NewEngine(diff.WithLogger(logger))
	}
	if s.maxParallel <= 0 {
		s.maxParallel = defaultMaxParallel
	}
	return s
}

// Registry returns the source registry in use.
func (s *Service) Registry() *source.Registry { return s.registry }

// LoadDatabases opens both snapshots and proposes a configuration: inferred
// key fields for every common table, all of them selected. It fails with a
// *domain.NoComparableTablesError when the snapshots share no table.
func (s *Service) LoadDatabases(ctx context.Context, sourcePath, targetPath string) (*Session, error) {
	var src, tgt *source.Database
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		db, err := s.openDatabase(gctx, sourcePath)
		src = db
		return err
	})
	g.Go(func() error {
		db, err := s.openDatabase(gctx, targetPath)
		tgt = db
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	common := domain.CommonNames(src.TableNames(), tgt.TableNames())
	if len(common) == 0 {
		return nil, domain.ErrNoComparableTables("table", src.Name, tgt.Name)
	}

	session := &Session{Source: src, Target: tgt, Common: common}
	cs := domain.NewConfigSet()
	for _, name := range common {
		cs.SetTable(name, domain.TableConfig{PrimaryKeys: s.inferKeys(session, name, "")})
	}
	cs.SelectAll(common)
	session.Config = cs

	s.logger.Info("snapshots loaded",
		"source", src.Name, "target", tgt.Name,
		"source_tables", len(src.Tables), "target_tables", len(tgt.Tables),
		"common", len(common))
	return session, nil
}

// AutoConfigure re-infers the key fields of every selected table using
// keyword and clears their ignored fields.
func (s *Service) AutoConfigure(session *Session, cs *domain.ConfigSet, keyword string) {
	for _, name := range cs.Selected {
		if session.Source.Table(name) == nil {
			continue
		}
		cs.SetTable(name, domain.TableConfig{PrimaryKeys: s.inferKeys(session, name, keyword)})
	}
	s.logger.Debug("auto-configured tables", "count", len(cs.Selected), "keyword", keyword)
}

// inferKeys proposes keys from the source table's own columns. Columns only
// the target has would key every source record as "".
func (s *Service) inferKeys(session *Session, table, keyword string) []string {
	t := session.Source.Table(table)
	sample := t.Records
	if len(sample) > inferenceSampleSize {
		sample = sample[:inferenceSampleSize]
	}
	return inference.InferKeysFromSample(t.Columns, t.PrimaryKey, keyword, sample)
}

// Run diffs the selected tables of a snapshot of cs in parallel. Edits to
// cs after Run starts do not affect the run.
func (s *Service) Run(ctx context.Context, session *Session, cs *domain.ConfigSet) (*Report, error) {
	snap := cs.Snapshot()
	if len(snap.Selected) == 0 {
		return nil, domain.ErrValidation("no tables selected")
	}
	for _, name := range snap.Selected {
		if session.Source.Table(name) == nil || session.Target.Table(name) == nil {
			return nil, domain.ErrValidation("table %q is not present in both snapshots", name)
		}
	}

	report := &Report{
		ID:            domain.NewID(),
		Source:        session.Source.Name,
		Target:        session.Target.Name,
		StartedAt:     time.Now().UTC(),
		ConfigVersion: snap.Version,
		Tables:        make([]TableReport, len(snap.Selected)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, name := range snap.Selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, tgt := session.Source.Table(name), session.Target.Table(name)
			tc := snap.Table(name)
			res, err := s.engine.Diff(name, tc, src.Records, tgt.Records, snap.Patterns)
			if err != nil {
				return fmt.Errorf("diff %s: %w", name, err)
			}
			report.Tables[i] = TableReport{
				Name:       name,
				SourceRows: src.RowCount(),
				TargetRows: tgt.RowCount(),
				Config:     tc,
				Result:     res,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.FinishedAt = time.Now().UTC()

	totals := report.Totals()
	s.logger.Info("comparison finished", "id", report.ID,
		"tables", len(report.Tables), "added", totals.Added,
		"removed", totals.Removed, "changed", totals.Changed,
		"duration", report.Duration())
	return report, nil
}

// Compare loads two snapshots, optionally re-infers keys with keyword and
// runs the proposed configuration.
func (s *Service) Compare(ctx context.Context, sourcePath, targetPath, keyword string) (*Report, error) {
	session, err := s.LoadDatabases(ctx, sourcePath, targetPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(keyword) != "" {
		s.AutoConfigure(session, session.Config, keyword)
	}
	return s.Run(ctx, session, session.Config)
}

// CompareWorkbooks diffs the sheets two workbooks share, in source order.
// It fails with a *domain.NoComparableTablesError when no sheet name is
// shared.
func (s *Service) CompareWorkbooks(ctx context.Context, sourcePath, targetPath string) (*SheetReport, error) {
	src, err := s.openWorkbook(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	tgt, err := s.openWorkbook(ctx, targetPath)
	if err != nil {
		return nil, err
	}

	report := &SheetReport{ID: domain.NewID(), Source: src.Name, Target: tgt.Name}

	// A CSV sheet is named after its file, so two single-sheet CSV inputs
	// pair up regardless of name.
	if isCSV(sourcePath) && isCSV(targetPath) && len(src.Sheets) == 1 && len(tgt.Sheets) == 1 {
		a, b := src.Sheets[0], tgt.Sheets[0]
		report.Sheets = append(report.Sheets, diff.DiffSheets(a.Name, a.Rows, b.Rows))
		return report, nil
	}

	common := domain.CommonNames(src.SheetNames(), tgt.SheetNames())
	if len(common) == 0 {
		return nil, domain.ErrNoComparableTables("sheet", src.Name, tgt.Name)
	}
	for _, name := range common {
		a, _ := src.Sheet(name)
		b, _ := tgt.Sheet(name)
		report.Sheets = append(report.Sheets, diff.DiffSheets(name, a.Rows, b.Rows))
	}
	s.logger.Info("workbooks compared", "id", report.ID, "sheets", len(report.Sheets))
	return report, nil
}

func (s *Service) openDatabase(ctx context.Context, location string) (*source.Database, error) {
	local, cleanup, err := s.resolver.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := s.registry.OpenDatabase(ctx, local)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	if storage.IsRemote(location) {
		db.Name = displayName(location)
	}
	return db, nil
}

func (s *Service) openWorkbook(ctx context.Context, location string) (*source.Workbook, error) {
	local, cleanup, err := s.resolver.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	wb, err := s.registry.OpenWorkbook(ctx, local)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	if storage.IsRemote(location) {
		wb.Name = displayName(location)
	}
	return wb, nil
}

func isCSV(location string) bool {
	return strings.EqualFold(path.Ext(location), ".csv")
}

func displayName(location string) string {
	base := path.Base(location)
	return strings.TrimSuffix(base, path.Ext(base))
}
