// Package catalog holds the static, immutable scale definitions and the questionnaire
// bank. A Catalog is built once and never modified; norm overrides produce a new one.
package catalog

import (
	"fmt"
	"sort"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// Metric identifiers of the validated core scales
const (
	PHQ9 = "PHQ9"
	GAD7 = "GAD7"
	PCL5 = "PCL5"
)

// Item is one questionnaire item.
// Domain tags an item for a logical scoring domain that may differ from its module.
// Cluster groups items inside a scale (e.g. DSM-5 symptom clusters).
type Item struct {
	Key     string `json:"key"`
	Reverse bool   `json:"reverse,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Cluster string `json:"cluster,omitempty"`
}

// Range is the inclusive input value range of a scale.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Width returns Max - Min.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// Clamp bounds v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Cutoffs is either an ordered list of thresholds producing an ordinal band or a
// single screening cutoff producing a binary band. Exactly one form is set.
type Cutoffs struct {
	Thresholds []int `json:"thresholds,omitempty"`
	Screening  *int  `json:"screening,omitempty"`
}

// IsScreening reports whether the binary form is in use.
func (c Cutoffs) IsScreening() bool {
	return c.Screening != nil
}

// MetricDefinition describes a validated scale.
type MetricDefinition struct {
	ID      string  `json:"id"`
	Family  string  `json:"family"` // calibration family key
	Items   []Item  `json:"items"`
	Range   Range   `json:"range"`
	Cutoffs Cutoffs `json:"cutoffs"`
	TrueMax int     `json:"true_max"`
	UIMax   int     `json:"ui_max,omitempty"`
}

// Validate checks the structural invariants of a definition.
func (d MetricDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidDefinition)
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("%w: %s has no items", domain.ErrInvalidDefinition, d.ID)
	}
	if d.Range.Width() <= 0 {
		return fmt.Errorf("%w: %s range [%v,%v] has no width", domain.ErrInvalidDefinition, d.ID, d.Range.Min, d.Range.Max)
	}
	if err := validateKeys(d.ID, d.Items); err != nil {
		return err
	}

	if d.Cutoffs.IsScreening() && len(d.Cutoffs.Thresholds) > 0 {
		return fmt.Errorf("%w: %s has both thresholds and a screening cutoff", domain.ErrInvalidDefinition, d.ID)
	}
	for i := 1; i < len(d.Cutoffs.Thresholds); i++ {
		if d.Cutoffs.Thresholds[i] <= d.Cutoffs.Thresholds[i-1] {
			return fmt.Errorf("%w: %s cutoffs must be strictly increasing, got %v",
				domain.ErrInvalidDefinition, d.ID, d.Cutoffs.Thresholds)
		}
	}
	if d.TrueMax <= 0 {
		return fmt.Errorf("%w: %s true maximum must be positive", domain.ErrInvalidDefinition, d.ID)
	}
	return nil
}

// ItemKeys returns the item keys in order.
func (d MetricDefinition) ItemKeys() []string {
	return itemKeys(d.Items)
}

// ClusterItems returns the items tagged with cluster.
func (d MetricDefinition) ClusterItems(cluster string) []Item {
	var out []Item
	for _, it := range d.Items {
		if it.Cluster == cluster {
			out = append(out, it)
		}
	}
	return out
}

func (d MetricDefinition) clone() MetricDefinition {
	d.Items = append([]Item(nil), d.Items...)
	d.Cutoffs.Thresholds = append([]int(nil), d.Cutoffs.Thresholds...)
	if d.Cutoffs.Screening != nil {
		v := *d.Cutoffs.Screening
		d.Cutoffs.Screening = &v
	}
	return d
}

// Module is one step of the questionnaire flow.
type Module struct {
	ID       string            `json:"id"`
	Kind     domain.ModuleKind `json:"kind"`
	Title    string            `json:"title"`
	Items    []Item            `json:"items,omitempty"`
	Range    Range             `json:"range"`
	Polarity domain.Polarity   `json:"polarity,omitempty"`
	UIMax    int               `json:"ui_max,omitempty"`
}

// Validate checks a module's invariants. Only scale modules need a usable range.
func (m Module) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: module without id", domain.ErrInvalidDefinition)
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("%w: module %s: %s", domain.ErrInvalidModuleKind, m.ID, m.Kind)
	}
	if m.Kind != domain.KindScale {
		return nil
	}
	if len(m.Items) == 0 {
		return fmt.Errorf("%w: module %s has no items", domain.ErrInvalidDefinition, m.ID)
	}
	if m.Range.Width() <= 0 {
		return fmt.Errorf("%w: module %s has no range width", domain.ErrInvalidDefinition, m.ID)
	}
	if !m.Polarity.IsValid() {
		return fmt.Errorf("%w: module %s: %q", domain.ErrInvalidPolarity, m.ID, m.Polarity)
	}
	return validateKeys(m.ID, m.Items)
}

// ItemKeys returns the item keys in order.
func (m Module) ItemKeys() []string {
	return itemKeys(m.Items)
}

// DomainItems returns items tagged with tag. Untagged items belong to the module's own id.
func (m Module) DomainItems(tag string) []Item {
	var out []Item
	for _, it := range m.Items {
		d := it.Domain
		if d == "" {
			d = m.ID
		}
		if d == tag {
			out = append(out, it)
		}
	}
	return out
}

// HasDomain reports whether any item carries an explicit tag equal to tag.
func (m Module) HasDomain(tag string) bool {
	for _, it := range m.Items {
		if it.Domain == tag {
			return true
		}
	}
	return false
}

func (m Module) clone() Module {
	m.Items = append([]Item(nil), m.Items...)
	return m
}

// Catalog is the immutable set of metric definitions and questionnaire modules.
type Catalog struct {
	metrics map[string]MetricDefinition
	modules []Module
	byID    map[string]int
}

// Option customises catalog construction.
type Option func(*builder)

type builder struct {
	metrics []MetricDefinition
	modules []Module
	norms   *Norms
}

// WithMetrics replaces the metric definitions.
func WithMetrics(defs ...MetricDefinition) Option {
	return func(b *builder) {
		b.metrics = defs
	}
}

// WithModules replaces the questionnaire bank.
func WithModules(mods ...Module) Option {
	return func(b *builder) {
		b.modules = mods
	}
}

// WithNorms overlays externally supplied cutoffs onto the metric definitions.
func WithNorms(n *Norms) Option {
	return func(b *builder) {
		b.norms = n
	}
}

// New builds and validates a catalog. Without options the built-in definitions are used.
func New(opts ...Option) (*Catalog, error) {
	b := &builder{
		metrics: DefaultMetrics(),
		modules: DefaultModules(),
	}
	for _, opt := range opts {
		opt(b)
	}

	c := &Catalog{
		metrics: make(map[string]MetricDefinition, len(b.metrics)),
		byID:    make(map[string]int, len(b.modules)),
	}

	for _, def := range b.metrics {
		def = def.clone()
		if b.norms != nil {
			def = b.norms.apply(def)
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.metrics[def.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate metric %s", domain.ErrInvalidDefinition, def.ID)
		}
		c.metrics[def.ID] = def
	}

	for _, m := range b.modules {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate module %s", domain.ErrInvalidDefinition, m.ID)
		}
		c.byID[m.ID] = len(c.modules)
		c.modules = append(c.modules, m.clone())
	}

	return c, nil
}

// MustDefault returns the built-in catalog and panics if it is invalid.
func MustDefault() *Catalog {
	c, err := New()
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// WithNorms returns a new catalog with norms applied on top of this one.
func (c *Catalog) WithNorms(n *Norms) (*Catalog, error) {
	defs := make([]MetricDefinition, 0, len(c.metrics))
	for _, id := range c.MetricIDs() {
		defs = append(defs, c.metrics[id])
	}
	return New(WithMetrics(defs...), WithModules(c.modules...), WithNorms(n))
}

// Metric returns a copy of the definition for id.
func (c *Catalog) Metric(id string) (MetricDefinition, bool) {
	def, ok := c.metrics[id]
	if !ok {
		return MetricDefinition{}, false
	}
	return def.clone(), true
}

// MetricIDs returns the metric ids in sorted order.
func (c *Catalog) MetricIDs() []string {
	ids := make([]string, 0, len(c.metrics))
	for id := range c.metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Module returns a copy of the module with id.
func (c *Catalog) Module(id string) (Module, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Module{}, false
	}
	return c.modules[i].clone(), true
}

// Modules returns the questionnaire flow in order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	for i, m := range c.modules {
		out[i] = m.clone()
	}
	return out
}

// ScaleModules returns the modules whose items count towards completion.
func (c *Catalog) ScaleModules() []Module {
	var out []Module
	for _, m := range c.modules {
		if m.Kind.Answerable() {
			out = append(out, m.clone())
		}
	}
	return out
}

// ModulesWithDomain returns the scale modules that contain items for tag, either
// because the module id equals tag or because an item is explicitly tagged.
func (c *Catalog) ModulesWithDomain(tag string) []Module {
	var out []Module
	for _, m := range c.modules {
		if m.Kind != domain.KindScale {
			continue
		}
		if m.ID == tag || m.HasDomain(tag) {
			out = append(out, m.clone())
		}
	}
	return out
}

func itemKeys(items []Item) []string {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	return keys
}

func validateKeys(owner string, items []Item) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Key == "" {
			return fmt.Errorf("%w: %s has an item without key", domain.ErrInvalidDefinition, owner)
		}
		if seen[it.Key] {
			return fmt.Errorf("%w: %s repeats item %s", domain.ErrInvalidDefinition, owner, it.Key)
		}
		seen[it.Key] = true
	}
	return nil
}
