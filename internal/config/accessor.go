package config

// Truthy reports whether a setting holds a true, non-zero or non-empty
// value. It accepts settings of any type, which suits version-valued
// switches such as USE_SDL.
func (s *Store) Truthy(name string) (bool, error) {
	v, err := s.Get(name)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}
