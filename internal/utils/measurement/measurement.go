package measurement

import (
	"slices"
	"strings"
	"sync"

	"github.com/samber/do/v2"
)

type Service struct {
	active bool
	plock  sync.Mutex
	points map[string]*Point
}

type Data struct {
	Name      string `json:"name"`
	Min       int64  `json:"min"`
	Max       int64  `json:"max"`
	Average   int64  `json:"average"`
	Total     int64  `json:"total"`
	Count     int    `json:"count"`
	Errors    int    `json:"errors"`
	MaxActive int    `json:"maxActive"`
}

type metricsConfig interface {
	MetricsActive() bool
}

// Init provides the measurement service, active if the config switches metrics on
func Init(inj do.Injector) {
	active := false
	if mc, err := do.InvokeAs[metricsConfig](inj); err == nil {
		active = mc.MetricsActive()
	}
	do.ProvideValue(inj, New(active))
}

// IsActive true if measurements are collected
func (s *Service) IsActive() bool {
	return s.active
}

func New(active bool) *Service {
	service := Service{
		active: active,
		points: make(map[string]*Point),
		plock:  sync.Mutex{},
	}
	return &service
}

func (s *Service) Start(name string) Monitor {
	p := s.Point(name)
	m := p.Monitor()
	m.Start()
	return m
}

func (s *Service) Point(name string) *Point {
	s.plock.Lock()
	defer s.plock.Unlock()
	p, ok := s.points[name]
	if !ok {
		p = NewPoint(name, s.active)
		s.points[name] = p
	}
	return p
}

func (s *Service) Datas() []Data {
	s.plock.Lock()
	defer s.plock.Unlock()
	datas := make([]Data, 0, len(s.points))
	for _, v := range s.points {
		datas = append(datas, v.Data())
	}
	slices.SortFunc(datas, func(d1, d2 Data) int {
		return strings.Compare(d1.Name, d2.Name)
	})
	return datas
}

func (s *Service) Reset() {
	s.plock.Lock()
	defer s.plock.Unlock()
	for _, v := range s.points {
		v.Reset()
	}
}
