package dataverse

import (
	"fmt"
	"strings"

	"pa-agent/internal/domain/entity"
)

// Summary describes a fetched record in a few log-friendly lines.
func Summary(record entity.CaseRecord) string {
	if len(record) == 0 {
		return "no form data"
	}

	account, _ := record["account"].(map[string]any)
	field := func(key string) string {
		if v, ok := account[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return "N/A"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Account Name: %s\n", field("name"))
	fmt.Fprintf(&sb, "Account ID: %s\n", field("accountid"))
	fmt.Fprintf(&sb, "Phone: %s\n", field("telephone1"))
	fmt.Fprintf(&sb, "Email: %s\n", field("emailaddress1"))
	fmt.Fprintf(&sb, "Address: %s, %s\n", field("address1_city"), field("address1_stateorprovince"))

	contacts, _ := record["contacts"].([]any)
	if len(contacts) == 0 {
		sb.WriteString("No contacts found")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Number of Contacts: %d", len(contacts))
	for i, c := range contacts {
		if i == 3 {
			break
		}
		contact, _ := c.(map[string]any)
		first, _ := contact["firstname"].(string)
		last, _ := contact["lastname"].(string)
		fmt.Fprintf(&sb, "\nContact %d: %s %s", i+1, first, last)
	}
	return sb.String()
}
