package models

import "time"

const (
	FormStepCustomer = "customer"
	FormStepSlot     = "slot"
)

// FormState is the draft of a customer booking form between steps.
type FormState struct {
	SessionID string                 `json:"session_id"`
	Step      string                 `json:"step"`
	Data      map[string]interface{} `json:"data"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (s *FormState) GetString(key string) string {
	if s.Data == nil {
		return ""
	}
	val, ok := s.Data[key]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func (s *FormState) GetInt(key string) int {
	if s.Data == nil {
		return 0
	}
	val, ok := s.Data[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (s *FormState) Set(key string, value interface{}) {
	if s.Data == nil {
		s.Data = make(map[string]interface{})
	}
	s.Data[key] = value
}

// Customer reassembles the step one answers.
func (s *FormState) Customer() Customer {
	return Customer{
		FullName: s.GetString("full_name"),
		Phone:    s.GetString("phone"),
		Email:    s.GetString("email"),
	}
}
