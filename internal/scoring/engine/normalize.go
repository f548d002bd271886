package engine

import (
	"strconv"
	"strings"
	"time"
)

// Field aliases, current schema name first, legacy names after. The first
// key present with a non-null value wins. Everything the rest of the engine
// sees goes through this table, so schema drift stays contained here.
var (
	aliasFirstName  = []string{"first_name", "firstName", "fname", "forename"}
	aliasLastName   = []string{"last_name", "lastName", "lname", "surname"}
	aliasFullName   = []string{"full_name", "fullName", "name", "contact_name"}
	aliasEmail      = []string{"email", "email_address", "contact_email", "e_mail"}
	aliasPhone      = []string{"phone", "phone_number", "mobile", "tel", "telephone", "contact_phone"}
	aliasCountry    = []string{"country", "country_code", "nationality"}
	aliasBudgetMin  = []string{"budget_min", "min_budget", "budget_from", "budgetMin"}
	aliasBudgetMax  = []string{"budget_max", "max_budget", "budget_to", "budget", "budgetMax"}
	aliasBedrooms   = []string{"bedrooms", "beds", "bedroom_count", "num_bedrooms"}
	aliasLocation   = []string{"preferred_location", "location", "area", "preferred_area"}
	aliasPurpose    = []string{"purchase_purpose", "purpose", "buying_reason", "investment_or_residence"}
	aliasTimeline   = []string{"timeline", "timeline_to_purchase", "purchase_timeline", "timeframe", "buying_timeline"}
	aliasPayment    = []string{"payment_method", "paymentMethod", "payment", "funding_method"}
	aliasMortgage   = []string{"mortgage_status", "mortgageStatus", "mortgage"}
	aliasProofFunds = []string{"proof_of_funds", "proofOfFunds", "pof", "funds_verified"}
	aliasBroker     = []string{"broker_status", "broker_connected", "broker"}
	aliasSolicitor  = []string{"solicitor_status", "solicitor_connected", "solicitor"}
	aliasReplied    = []string{"replied", "has_replied", "responded"}
	aliasLastTouch  = []string{"last_contact_at", "last_contacted", "last_contact", "lastContactAt"}
	aliasViewBooked = []string{"viewing_booked", "viewingBooked", "has_viewing", "viewing_scheduled"}
	aliasViewConf   = []string{"viewing_confirmed", "viewingConfirmed", "viewing_intent_confirmed"}
	aliasTranscript = []string{"transcript", "call_summary", "call_transcript", "conversation_summary", "notes"}
	aliasStopComms  = []string{"stop_comms", "stopComms", "do_not_contact", "unsubscribed", "opted_out"}
	aliasSource     = []string{"source", "lead_source", "channel", "utm_source"}
	aliasCampaign   = []string{"campaign_id", "campaignId", "campaign", "utm_campaign"}
	aliasDevID      = []string{"development_id", "developmentId", "project_id"}
	aliasDevName    = []string{"development_name", "developmentName", "project", "development"}
	aliasStatus     = []string{"status", "stage", "pipeline_stage", "lead_status"}
	aliasCreatedAt  = []string{"created_at", "createdAt", "created"}
	aliasUpdatedAt  = []string{"updated_at", "updatedAt", "modified_at"}
	aliasHoneypot   = []string{"honeypot", "_hp", "website_url", "test_marker"}
	aliasID         = []string{"id", "lead_id", "buyer_id", "external_id"}
)

// Normalize maps an arbitrary key-value record from any of the historical
// schemas into the canonical LeadRecord. It is total: unknown keys are
// ignored, missing fields get zero values, and no input shape causes an
// error.
func Normalize(raw map[string]any) LeadRecord {
	rec := LeadRecord{
		ID:                firstString(raw, aliasID),
		FirstName:         firstString(raw, aliasFirstName),
		LastName:          firstString(raw, aliasLastName),
		FullName:          firstString(raw, aliasFullName),
		Email:             strings.ToLower(firstString(raw, aliasEmail)),
		Phone:             firstString(raw, aliasPhone),
		Country:           firstString(raw, aliasCountry),
		BudgetMin:         firstFloat(raw, aliasBudgetMin),
		BudgetMax:         firstFloat(raw, aliasBudgetMax),
		Bedrooms:          firstInt(raw, aliasBedrooms),
		PreferredLocation: firstString(raw, aliasLocation),
		PurchasePurpose:   strings.ToLower(firstString(raw, aliasPurpose)),
		Timeline:          strings.ToLower(firstString(raw, aliasTimeline)),
		PaymentMethod:     strings.ToLower(firstString(raw, aliasPayment)),
		MortgageStatus:    strings.ToLower(firstString(raw, aliasMortgage)),
		ProofOfFunds:      firstBool(raw, aliasProofFunds),
		BrokerStatus:      normalizeConnection(firstString(raw, aliasBroker)),
		SolicitorStatus:   normalizeConnection(firstString(raw, aliasSolicitor)),
		Replied:           firstBool(raw, aliasReplied),
		LastContactAt:     firstTime(raw, aliasLastTouch),
		ViewingBooked:     firstBool(raw, aliasViewBooked),
		ViewingConfirmed:  firstBool(raw, aliasViewConf),
		Transcript:        firstString(raw, aliasTranscript),
		StopComms:         firstBool(raw, aliasStopComms),
		Source:            firstString(raw, aliasSource),
		CampaignID:        firstString(raw, aliasCampaign),
		DevelopmentID:     firstString(raw, aliasDevID),
		DevelopmentName:   firstString(raw, aliasDevName),
		Honeypot:          honeypotTripped(raw),
	}

	if rec.FullName == "" {
		rec.FullName = rec.DisplayName()
	}

	status := Stage(strings.ToLower(firstString(raw, aliasStatus)))
	if !IsValidStage(status) {
		status = StageNew
	}
	rec.Status = status

	if t := firstTime(raw, aliasCreatedAt); t != nil {
		rec.CreatedAt = *t
	}
	if t := firstTime(raw, aliasUpdatedAt); t != nil {
		rec.UpdatedAt = *t
	}

	return rec
}

// honeypotTripped treats any filled honeypot field as a trip. Bots fill
// hidden fields with text; a boolean false or empty string is a clean pass.
func honeypotTripped(raw map[string]any) bool {
	for _, key := range aliasHoneypot {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch typed := value.(type) {
		case bool:
			if typed {
				return true
			}
		case string:
			if strings.TrimSpace(typed) != "" {
				return true
			}
		}
	}
	return false
}

func normalizeConnection(value string) ConnectionStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "connected", "1":
		return ConnectionYes
	case "no", "false", "none", "0":
		return ConnectionNo
	case "introduced", "intro", "pending":
		return ConnectionIntroduced
	default:
		return ConnectionUnknown
	}
}

func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch typed := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(typed); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(typed, 'f', -1, 64)
		case int:
			return strconv.Itoa(typed)
		case bool:
			return strconv.FormatBool(typed)
		}
	}
	return ""
}

func firstFloat(raw map[string]any, keys []string) float64 {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch typed := value.(type) {
		case float64:
			return typed
		case int:
			return float64(typed)
		case int64:
			return float64(typed)
		case string:
			cleaned := strings.NewReplacer(",", "", "£", "", "$", "", "€", "", " ", "").Replace(typed)
			if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func firstInt(raw map[string]any, keys []string) int {
	return int(firstFloat(raw, keys))
}

func firstBool(raw map[string]any, keys []string) bool {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch typed := value.(type) {
		case bool:
			return typed
		case string:
			switch strings.ToLower(strings.TrimSpace(typed)) {
			case "true", "yes", "1", "y":
				return true
			case "false", "no", "0", "n", "":
				return false
			}
		case float64:
			return typed != 0
		case int:
			return typed != 0
		}
	}
	return false
}

func firstTime(raw map[string]any, keys []string) *time.Time {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch typed := value.(type) {
		case time.Time:
			return &typed
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
				if parsed, err := time.Parse(layout, typed); err == nil {
					return &parsed
				}
			}
		}
	}
	return nil
}
