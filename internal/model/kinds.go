package model

import (
	"encoding/json"
	"fmt"
)

// PostalInfo is one variant of a contact's postal address block. Contacts
// carry up to two variants, localized and internationalized, which behave as
// a pair during updates.
type PostalInfo struct {
	Name        string   `json:"name,omitempty"`
	Org         string   `json:"org,omitempty"`
	Street      []string `json:"street,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	Zip         string   `json:"zip,omitempty"`
	CountryCode string   `json:"cc,omitempty"`
}

// ContactData holds the contact-specific fields of a resource.
type ContactData struct {
	LocalizedPostalInfo         *PostalInfo `json:"localizedPostalInfo,omitempty"`
	InternationalizedPostalInfo *PostalInfo `json:"internationalizedPostalInfo,omitempty"`
	Voice                       string      `json:"voice,omitempty"`
	Email                       string      `json:"email,omitempty"`
	AuthInfo                    string      `json:"authInfo,omitempty"`
}

// DomainData holds the domain-specific fields of a resource.
type DomainData struct {
	Nameservers []string `json:"nameservers,omitempty"`
	ContactIDs  []string `json:"contactIds,omitempty"`
	AuthInfo    string   `json:"authInfo,omitempty"`
}

// HostData holds the host-specific fields of a resource.
type HostData struct {
	Addresses []string `json:"addresses,omitempty"`
}

// DecodeKindData unmarshals the resource's kind payload into out, which must
// be a pointer to the struct matching the resource's kind. An empty column
// leaves out at its zero value.
func DecodeKindData(r *Resource, out any) error {
	if r.KindDataJSON == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(r.KindDataJSON), out); err != nil {
		return fmt.Errorf("model: decoding %s kind data for %s: %w", r.Kind, r.RepoID, err)
	}
	return nil
}

// EncodeKindData marshals the kind payload back onto the resource.
func EncodeKindData(r *Resource, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("model: encoding %s kind data for %s: %w", r.Kind, r.RepoID, err)
	}
	r.KindDataJSON = string(encoded)
	return nil
}
