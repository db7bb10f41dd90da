package schema

import "fmt"

// Secretary inputs use a capitalized camel suffix on a flat "isec" prefix
// (isecFname, isecResGps); the indexed kinds embed the index before an
// underscore (idirector2_fname). This table makes that divergence explicit.
var secretarySuffix = map[Field]string{
	FieldTitle:         "Title",
	FieldFirstName:     "Fname",
	FieldMiddleName:    "Mname",
	FieldSurname:       "Sname",
	FieldFormerName:    "Former",
	FieldGender:        "Gender",
	FieldDateOfBirth:   "Dob",
	FieldPlaceOfBirth:  "Pob",
	FieldNationality:   "Nation",
	FieldOccupation:    "Occupation",
	FieldContact1:      "Contact1",
	FieldContact2:      "Contact2",
	FieldEmail:         "Email",
	FieldTIN:           "Tin",
	FieldGhanaCard:     "GhanaCard",
	FieldResGPS:        "ResGps",
	FieldResHouse:      "ResHse",
	FieldResLandmark:   "ResLandmark",
	FieldResStreet:     "ResStreet",
	FieldResCity:       "ResCity",
	FieldResTown:       "ResTown",
	FieldResDistrict:   "ResDistrict",
	FieldResRegion:     "ResRegion",
	FieldResCountry:    "ResCountry",
	FieldQualification: "Qualification",
}

// ExternalID returns the input identifier a field has on the original form
// for the given kind and 1-based index. The index is ignored for the
// secretary singleton.
func ExternalID(kind RecordKind, index int, f Field) string {
	switch kind {
	case KindDirector:
		return fmt.Sprintf("idirector%d_%s", index, f)
	case KindSubscriber:
		return fmt.Sprintf("isubscriber%d_%s", index, f)
	case KindOwner:
		return fmt.Sprintf("iowner%d_%s", index, f)
	case KindSecretary:
		return "isec" + secretarySuffix[f]
	}
	return ""
}

// CompanyExternalID returns the input identifier of a company-level field.
func CompanyExternalID(f Field) string {
	return "i" + string(f)
}

// SectionName returns the persisted section prefix for a record, e.g.
// "director2", "secretary", "company".
func SectionName(kind RecordKind, index int) string {
	if kind == KindSecretary {
		return "secretary"
	}
	return fmt.Sprintf("%s%d", kind, index)
}
