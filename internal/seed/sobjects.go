package seed

// SObjectDef defines a standard sobject type.
type SObjectDef struct {
	KeyPrefix   string
	Name        string
	Label       string
	LabelPlural string
}

// StandardObjects lists the standard sobject types the sandbox ships with,
// keyed by API name. The key prefixes match the platform's ID scheme.
var StandardObjects = []SObjectDef{
	{KeyPrefix: "001", Name: "Account", Label: "Account", LabelPlural: "Accounts"},
	{KeyPrefix: "003", Name: "Contact", Label: "Contact", LabelPlural: "Contacts"},
	{KeyPrefix: "006", Name: "Opportunity", Label: "Opportunity", LabelPlural: "Opportunities"},
	{KeyPrefix: "00Q", Name: "Lead", Label: "Lead", LabelPlural: "Leads"},
	{KeyPrefix: "500", Name: "Case", Label: "Case", LabelPlural: "Cases"},
}

type fieldDef struct {
	Name        string
	Label       string
	Type        string
	Required    bool
	ExternalID  bool
	ReferenceTo string
}

// standardFields maps sobject names to their field definitions. Required
// fields are enforced at insert time; reference fields are checked against
// live records of the referenced type.
var standardFields = map[string][]fieldDef{
	"Account": {
		{Name: "Name", Label: "Account Name", Type: "string", Required: true},
		{Name: "AccountNumber", Label: "Account Number", Type: "string", ExternalID: true},
		{Name: "Industry", Label: "Industry", Type: "picklist"},
		{Name: "Description", Label: "Account Description", Type: "textarea"},
		{Name: "Phone", Label: "Account Phone", Type: "phone"},
		{Name: "Website", Label: "Website", Type: "url"},
		{Name: "BillingCity", Label: "Billing City", Type: "string"},
		{Name: "BillingCountry", Label: "Billing Country", Type: "string"},
	},
	"Contact": {
		{Name: "FirstName", Label: "First Name", Type: "string"},
		{Name: "LastName", Label: "Last Name", Type: "string", Required: true},
		{Name: "Email", Label: "Email", Type: "email"},
		{Name: "Phone", Label: "Business Phone", Type: "phone"},
		{Name: "Title", Label: "Title", Type: "string"},
		{Name: "AccountId", Label: "Account ID", Type: "reference", ReferenceTo: "Account"},
	},
	"Opportunity": {
		{Name: "Name", Label: "Opportunity Name", Type: "string", Required: true},
		{Name: "StageName", Label: "Stage", Type: "picklist", Required: true},
		{Name: "CloseDate", Label: "Close Date", Type: "date", Required: true},
		{Name: "Amount", Label: "Amount", Type: "currency"},
		{Name: "AccountId", Label: "Account ID", Type: "reference", ReferenceTo: "Account"},
	},
	"Lead": {
		{Name: "FirstName", Label: "First Name", Type: "string"},
		{Name: "LastName", Label: "Last Name", Type: "string", Required: true},
		{Name: "Company", Label: "Company", Type: "string", Required: true},
		{Name: "Email", Label: "Email", Type: "email"},
		{Name: "Status", Label: "Lead Status", Type: "picklist"},
	},
	"Case": {
		{Name: "Subject", Label: "Subject", Type: "string"},
		{Name: "Status", Label: "Status", Type: "picklist"},
		{Name: "Origin", Label: "Case Origin", Type: "picklist"},
		{Name: "AccountId", Label: "Account ID", Type: "reference", ReferenceTo: "Account"},
	},
}
