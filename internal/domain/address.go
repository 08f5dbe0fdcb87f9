package domain

import "strings"

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Landmark   string `json:"landmark,omitempty"`
}

// Address field names, as accepted by Set and reported in validation errors.
const (
	FieldFullName   = "fullName"
	FieldPhone      = "phone"
	FieldAddress1   = "address1"
	FieldAddress2   = "address2"
	FieldCity       = "city"
	FieldState      = "state"
	FieldPostalCode = "postalCode"
	FieldLandmark   = "landmark"
)

// RequiredAddressFields are checked in this order before an order is submitted.
var RequiredAddressFields = []string{FieldFullName, FieldPhone, FieldAddress1, FieldCity, FieldPostalCode}

// Get returns the named field, or "" for an unknown name.
func (a ShippingAddress) Get(field string) string {
	switch field {
	case FieldFullName:
		return a.FullName
	case FieldPhone:
		return a.Phone
	case FieldAddress1:
		return a.Address1
	case FieldAddress2:
		return a.Address2
	case FieldCity:
		return a.City
	case FieldState:
		return a.State
	case FieldPostalCode:
		return a.PostalCode
	case FieldLandmark:
		return a.Landmark
	}
	return ""
}

// Set assigns the named field and reports whether the name was known.
func (a *ShippingAddress) Set(field, value string) bool {
	switch field {
	case FieldFullName:
		a.FullName = value
	case FieldPhone:
		a.Phone = value
	case FieldAddress1:
		a.Address1 = value
	case FieldAddress2:
		a.Address2 = value
	case FieldCity:
		a.City = value
	case FieldState:
		a.State = value
	case FieldPostalCode:
		a.PostalCode = value
	case FieldLandmark:
		a.Landmark = value
	default:
		return false
	}
	return true
}

// MissingField returns the first required field that is blank, or "".
func (a ShippingAddress) MissingField() string {
	for _, f := range RequiredAddressFields {
		if strings.TrimSpace(a.Get(f)) == "" {
			return f
		}
	}
	return ""
}
