package schema

// Demo returns the built-in sample hierarchy: a CRM-style opportunity chain
// (Opportunity → Quote → Quote Line → Characteristic). It doubles as the
// fixture hierarchy for tests and for `nestgrid --demo`.
func Demo() Hierarchy {
	return Hierarchy{Levels: []Level{
		{
			RecordSet: "opportunities",
			Key:       "opportunityid",
			Columns: []Column{
				{Key: "name", Label: "Opportunity Name", Editable: true, Required: true, Kind: KindText},
				{Key: "_parentcontactid_value", Label: "Customer", Editable: true, Kind: KindLookup, Lookup: &Lookup{
					RecordSet:     "contacts",
					KeyField:      "contactid",
					NameField:     "fullname",
					DisplayFields: []string{"fullname", "emailaddress1"},
				}},
				{Key: "estimatedvalue", Label: "Revenue", Editable: true, Kind: KindNumber},
				{Key: "ishost", Label: "Is Host?", Editable: true, Kind: KindBoolean},
				{Key: "description", Label: "Description", Editable: true, Kind: KindText},
			},
			Base: []BaseCondition{
				{Field: "ishost", Op: "eq", Value: "false"},
				{Field: "_originalopportunity_value", Op: "eq", Value: PlaceholderRoot},
			},
			Child:       1,
			Multiple:    true,
			Title:       "Child Opportunities",
			SearchField: "name",
		},
		{
			RecordSet:   "quotes",
			Key:         "quoteid",
			ParentField: "_opportunityid_value",
			Columns: []Column{
				{Key: "name", Label: "Quote Name", Editable: true, Required: true, Kind: KindText},
				{Key: "statuscode", Label: "Status", Kind: KindChoice},
			},
			Child:    2,
			Multiple: true,
			Title:    "Quotes",
		},
		{
			RecordSet:   "quotedetails",
			Key:         "quotedetailid",
			ParentField: "_quoteid_value",
			Columns: []Column{
				{Key: "productname", Label: "Product", Required: true, Kind: KindText},
				{Key: "quantity", Label: "Quantity", Editable: true, Required: true, Kind: KindNumber},
				{Key: "extendedamount", Label: "Total Amount", Required: true, Kind: KindNumber},
			},
			Child:    3,
			Multiple: true,
			Title:    "Quote Lines",
		},
		{
			RecordSet:   "characteristics",
			Key:         "characteristicid",
			ParentField: "_quotedetail_value",
			Columns: []Column{
				{Key: "featurename", Label: "Feature", Editable: true, Required: true, Kind: KindText},
				{Key: "featuretype", Label: "Type", Editable: true, Required: true, Kind: KindChoice},
				{Key: "featuretype2", Label: "Type2", Editable: true, Required: true, Kind: KindChoice},
				{Key: "_referencingquote_value", Label: "Referencing Quote", Editable: true, Kind: KindLookup, Lookup: &Lookup{
					RecordSet:     "quotes",
					KeyField:      "quoteid",
					NameField:     "name",
					DisplayFields: []string{"name", "quotenumber"},
					Relationship:  "ReferencingQuote",
				}},
			},
			Child:    -1,
			Multiple: true,
			Title:    "Quote Characteristics",
		},
	}}
}
