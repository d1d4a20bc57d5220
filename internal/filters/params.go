package filters

// Params holds decode parameters from a stream's /DecodeParms, converted to
// Go values (int, float64, bool, string).
type Params map[string]interface{}

// Int returns an integer parameter or def when absent or not numeric
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Bool returns a boolean parameter or def
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}
