package domain

import "time"

// Webhook event types.
const (
	EventWeightRecorded   = "weight.recorded"
	EventWeightOverweight = "weight.overweight"
	EventLoadStatus       = "load.status_changed"
)

// KnownEvents lists the event types a webhook may subscribe to.
var KnownEvents = []string{EventWeightRecorded, EventWeightOverweight, EventLoadStatus}

// Webhook is an outbound subscription owned by a company.
type Webhook struct {
	Base      `bson:",inline"`
	CompanyID string   `json:"company_id" bson:"company_id"`
	URL       string   `json:"url" bson:"url"`
	Events    []string `json:"events" bson:"events"`
	Secret    string   `json:"-" bson:"secret"`
	Active    bool     `json:"active" bson:"active"`
}

func (w *Webhook) Owner() string { return w.CompanyID }

func (w *Webhook) SetOwner(id string) { w.CompanyID = id }

// Subscribes reports whether the webhook wants events of the given type.
func (w *Webhook) Subscribes(eventType string) bool {
	if !w.Active {
		return false
	}
	for _, e := range w.Events {
		if e == eventType || e == "*" {
			return true
		}
	}
	return false
}

// APIKey authenticates a scale integration on behalf of a company. Only the
// bcrypt hash of the secret part is stored.
type APIKey struct {
	Base       `bson:",inline"`
	CompanyID  string     `json:"company_id" bson:"company_id"`
	Name       string     `json:"name" bson:"name"`
	Prefix     string     `json:"prefix" bson:"prefix"`
	Hash       string     `json:"-" bson:"hash"`
	Revoked    bool       `json:"revoked" bson:"revoked"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" bson:"last_used_at,omitempty"`
}

func (k *APIKey) Owner() string { return k.CompanyID }

func (k *APIKey) SetOwner(id string) { k.CompanyID = id }

// Identity returns the integration identity the key authenticates as.
func (k *APIKey) Identity() Identity {
	return Identity{UserID: "apikey:" + k.ID, Role: RoleIntegration, CompanyID: k.CompanyID}
}
