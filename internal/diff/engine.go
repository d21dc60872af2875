package diff

import (
	"log/slog"
	"time"

	"recdiff/internal/domain"
)

// Engine diffs record collections keyed by their configured key fields.
// An Engine holds no per-run state and is safe for concurrent use.
type Engine struct {
	logger       *slog.Logger
	strictKeys   bool
	matchTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for recovered conditions such as invalid
// patterns or duplicate keys.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStrictKeys makes Diff fail with a *domain.DuplicateKeyError when a key
// occurs more than once on either side, instead of letting the later source
// record win.
func WithStrictKeys(on bool) Option {
	return func(e *Engine) { e.strictKeys = on }
}

// WithMatchTimeout bounds each pattern match.
func WithMatchTimeout(d time.Duration) Option {
	return func(e *Engine) { e.matchTimeout = d }
}

// NewEngine creates an Engine. Without options it is lenient about duplicate
// keys and logs nothing.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:       slog.New(slog.DiscardHandler),
		matchTimeout: DefaultMatchTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var lenient = NewEngine()

// Diff compares source (old) and target (new) records of one table with a
// lenient engine. It never fails: an unconfigured table yields an empty
// result, and invalid patterns fall back to raw comparison.
func Diff(table string, cfg domain.TableConfig, source, target []*domain.Record, patterns domain.PatternMap) *domain.DiffResult {
	res, _ := lenient.Diff(table, cfg, source, target, patterns)
	return res
}

// Diff classifies records into added, removed, changed and identical.
//
// Records are matched by BuildKey over cfg.PrimaryKeys. Within a matched pair
// every field of the union of both records is compared after normalization,
// except key and ignored fields. Added and changed entries follow target
// order; removed entries follow source order. When a key repeats in source,
// the later record wins the lookup unless strict keys are enabled.
//
// The only error is *domain.DuplicateKeyError in strict mode.
func (e *Engine) Diff(table string, cfg domain.TableConfig, source, target []*domain.Record, patterns domain.PatternMap) (*domain.DiffResult, error) {
	result := domain.NewDiffResult(table)
	if !cfg.Configured() {
		e.logger.Debug("table has no key fields; skipping diff", "table", table)
		return result, nil
	}
	keys := cfg.PrimaryKeys

	excluded := make(map[string]bool, len(keys)+len(cfg.Ignored))
	for _, f := range cfg.Ignored {
		excluded[f] = true
	}
	for _, f := range keys {
		excluded[f] = true
	}
	compiled := e.compilePatterns(table, patterns[table])

	lookup := make(map[string]*domain.Record, len(source))
	order := make([]string, 0, len(source))
	var sourceDups []string
	for _, rec := range source {
		k := BuildKey(rec, keys)
		if _, ok := lookup[k]; ok {
			sourceDups = append(sourceDups, k)
		} else {
			order = append(order, k)
		}
		lookup[k] = rec
	}

	targetKeys := make([]string, len(target))
	seen := make(map[string]bool, len(target))
	var targetDups []string
	for i, rec := range target {
		k := BuildKey(rec, keys)
		targetKeys[i] = k
		if seen[k] {
			targetDups = append(targetDups, k)
		}
		seen[k] = true
	}

	if e.strictKeys {
		if len(sourceDups) > 0 {
			return nil, &domain.DuplicateKeyError{Table: table, Side: "source", Keys: sourceDups}
		}
		if len(targetDups) > 0 {
			return nil, &domain.DuplicateKeyError{Table: table, Side: "target", Keys: targetDups}
		}
	}
	if len(sourceDups) > 0 {
		e.logger.Warn("duplicate keys in source records; later records win",
			"table", table, "count", len(sourceDups))
	}

	for i, rec := range target {
		counterpart, ok := lookup[targetKeys[i]]
		if !ok {
			result.Added = append(result.Added, rec)
			continue
		}
		changes := compareRecords(counterpart, rec, excluded, compiled)
		if len(changes) > 0 {
			result.Changed = append(result.Changed, domain.ChangedRecord{
				Key:     rec,
				Source:  counterpart,
				Changes: changes,
			})
		} else {
			result.IdenticalCount++
		}
	}

	for _, k := range order {
		if !seen[k] {
			result.Removed = append(result.Removed, lookup[k])
		}
	}

	e.logger.Debug("table diffed", "table", table,
		"added", len(result.Added), "removed", len(result.Removed),
		"changed", len(result.Changed), "identical", result.IdenticalCount)
	return result, nil
}

// compilePatterns compiles each configured pattern once per run. Invalid
// patterns are logged and kept so the field still reports PatternApplied.
func (e *Engine) compilePatterns(table string, fields map[string]string) map[string]*Pattern {
	out := make(map[string]*Pattern, len(fields))
	for field, expr := range fields {
		if expr == "" {
			continue
		}
		p := CompilePattern(expr, e.matchTimeout)
		if p.Err != nil {
			e.logger.Warn("invalid comparison pattern; comparing raw values",
				"table", table, "field", field, "pattern", expr, "error", p.Err)
		}
		out[field] = p
	}
	return out
}

func compareRecords(oldRec, newRec *domain.Record, excluded map[string]bool, patterns map[string]*Pattern) []domain.FieldChange {
	var changes []domain.FieldChange
	check := func(field string) {
		if excluded[field] {
			return
		}
		oldVal, _ := oldRec.Get(field)
		newVal, _ := newRec.Get(field)
		oldStr, newStr := Canonical(oldVal), Canonical(newVal)
		p, hasPattern := patterns[field]
		if hasPattern {
			oldStr, newStr = p.Apply(oldStr), p.Apply(newStr)
		}
		if oldStr != newStr {
			changes = append(changes, domain.FieldChange{
				Field:          field,
				Old:            oldVal,
				New:            newVal,
				OldNormalized:  oldStr,
				NewNormalized:  newStr,
				PatternApplied: hasPattern,
			})
		}
	}
	for _, f := range oldRec.Fields() {
		check(f)
	}
	for _, f := range newRec.Fields() {
		if !oldRec.Has(f) {
			check(f)
		}
	}
	return changes
}
