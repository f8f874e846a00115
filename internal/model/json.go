package model

import "encoding/json"

// MarshalJSON adds hoursSincePosted, null when the age is unknown.
func (s ScoredRecord) MarshalJSON() ([]byte, error) {
	type plain ScoredRecord
	return json.Marshal(struct {
		plain
		HoursSincePosted *float64 `json:"hoursSincePosted"`
	}{plain(s), s.HoursSincePosted.Display()})
}

// UnmarshalJSON restores a record written by MarshalJSON.
func (s *ScoredRecord) UnmarshalJSON(data []byte) error {
	type plain ScoredRecord
	aux := struct {
		*plain
		HoursSincePosted *float64 `json:"hoursSincePosted"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.HoursSincePosted == nil {
		s.HoursSincePosted = UnknownAge
	} else {
		s.HoursSincePosted = HoursAge(*aux.HoursSincePosted)
	}
	return nil
}
