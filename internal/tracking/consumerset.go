package tracking

import "sync"

// consumerSet is a concurrent set of tailing consumers: added to when a
// consumer starts or resumes tailing the shared cache, removed from when it
// falls behind (by itself or by the cleaner) or closes.
type consumerSet struct {
	m sync.Map // *Consumer -> struct{}
}

func (s *consumerSet) add(c *Consumer)      { s.m.Store(c, struct{}{}) }
func (s *consumerSet) remove(c *Consumer)   { s.m.Delete(c) }
func (s *consumerSet) contains(c *Consumer) bool {
	_, ok := s.m.Load(c)
	return ok
}

func (s *consumerSet) empty() bool {
	empty := true
	s.m.Range(func(_, _ any) bool {
		empty = false
		return false
	})
	return empty
}

func (s *consumerSet) forEach(fn func(*Consumer)) {
	s.m.Range(func(k, _ any) bool {
		fn(k.(*Consumer))
		return true
	})
}
