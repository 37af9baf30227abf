package numberrequest

import (
	"sort"
	"strings"
)

// ServiceDefinition maps a client-facing service name to the provider code.
// SingleCode services stop being polled after their first delivered code.
type ServiceDefinition struct {
	Name       string
	Code       string
	SingleCode bool
}

// Catalog is the fixed set of services clients may request numbers for.
type Catalog struct {
	services []ServiceDefinition
	byName   map[string]int
}

// DefaultCatalog returns the supported betting services.
func DefaultCatalog() *Catalog {
	return NewCatalog([]ServiceDefinition{
		{Name: "bet365", Code: "ie"},
		{Name: "sisal", Code: "bmi"},
		{Name: "SNAI", Code: "bqy"},
		{Name: "Betflag", Code: "bmj"},
	})
}

func NewCatalog(services []ServiceDefinition) *Catalog {
	c := &Catalog{
		services: make([]ServiceDefinition, len(services)),
		byName:   make(map[string]int, len(services)),
	}
	copy(c.services, services)
	for i, s := range c.services {
		c.byName[strings.ToLower(s.Name)] = i
	}
	return c
}

// Lookup resolves a service by name, ignoring case.
func (c *Catalog) Lookup(name string) (ServiceDefinition, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ServiceDefinition{}, false
	}
	return c.services[i], true
}

// LookupCode resolves a service by its provider code.
func (c *Catalog) LookupCode(code string) (ServiceDefinition, bool) {
	for _, s := range c.services {
		if s.Code == code {
			return s, true
		}
	}
	return ServiceDefinition{}, false
}

// Services returns the catalog in declaration order.
func (c *Catalog) Services() []ServiceDefinition {
	out := make([]ServiceDefinition, len(c.services))
	copy(out, c.services)
	return out
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.services))
	for i, s := range c.services {
		names[i] = s.Name
	}
	return names
}

// WithSingleCode returns a copy of the catalog where the named services are
// single-code. Unknown names are returned so the caller can report them.
func (c *Catalog) WithSingleCode(names []string) (*Catalog, []string) {
	out := NewCatalog(c.services)
	var unknown []string
	for _, name := range names {
		i, ok := out.byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out.services[i].SingleCode = true
	}
	sort.Strings(unknown)
	return out, unknown
}
