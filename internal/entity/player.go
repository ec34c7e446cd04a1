package entity

// Participant is one connected client. The id lives as long as the connection.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (that *Participant) IsLoggedIn() bool {
	return that.Name != ""
}
