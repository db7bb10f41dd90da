package schema

import "strings"

// labels maps canonical fields to the human-readable labels the original
// forms show. These labels are part of the persisted record shape
// ("<section>_<Label>" keys) and must not change once data exists.
var labels = map[Field]string{
	FieldTitle:        "Title",
	FieldFirstName:    "First Name",
	FieldMiddleName:   "Middle Name",
	FieldSurname:      "Surname",
	FieldFormerName:   "Former Name",
	FieldGender:       "Gender",
	FieldDateOfBirth:  "Date of Birth",
	FieldPlaceOfBirth: "Place of Birth",
	FieldNationality:  "Nationality",
	FieldOccupation:   "Occupation",
	FieldContact1:     "Contact 1",
	FieldContact2:     "Contact 2",
	FieldEmail:        "Email",
	FieldTIN:          "TIN",
	FieldGhanaCard:    "Ghana Card",
	FieldResGPS:       "GPS",
	FieldResHouse:     "House No.",
	FieldResLandmark:  "Landmark",
	FieldResStreet:    "Street",
	FieldResCity:      "City",
	FieldResTown:      "Town",
	FieldResDistrict:  "District",
	FieldResRegion:    "Region",
	FieldResCountry:   "Country",

	FieldSharePercent:    "Share Percent",
	FieldVotingRights:    "Voting Rights",
	FieldDirectPercent:   "Direct Percent",
	FieldIndirectPercent: "Indirect Percent",
	FieldQualification:   "Qualification",

	FieldCompanyName:      "Company Name",
	FieldEndWith:          "End With",
	FieldConstitutionType: "Constitution Type",
	FieldPresentedBy:      "Presented By",
	FieldPresenterTIN:     "Presenter TIN",
	FieldActivities:       "Principal Activities",
	FieldCapital:          "Stated Capital",
	FieldEstimatedRevenue: "Estimated Revenue",
	FieldNumEmployees:     "No. of Employees",

	FieldOfficeGPS:        "Office GPS",
	FieldOfficeHouse:      "Office House No.",
	FieldOfficeLandmark:   "Office Landmark",
	FieldOfficeStreet:     "Office Street",
	FieldOfficeCity:       "Office City",
	FieldOfficeTown:       "Office Town",
	FieldOfficeDistrict:   "Office District",
	FieldOfficeRegion:     "Office Region",
	FieldOfficePostalType: "Office Postal Type",
	FieldOfficeBoxNumber:  "Office Box Number",
	FieldOfficeBoxTown:    "Office Box Town",
	FieldOfficeBoxRegion:  "Office Box Region",
	FieldOfficeContact1:   "Office Contact 1",
	FieldOfficeContact2:   "Office Contact 2",
	FieldOfficeEmail:      "Office Email",
}

// Label returns the human-readable label of a field.
func Label(f Field) string {
	return labels[f]
}

// FlattenKey builds the persisted key for a field within a section. Spaces
// and periods become underscores; this is a hard compatibility contract with
// previously persisted records.
func FlattenKey(section string, f Field) string {
	return section + "_" + sanitizeLabel(labels[f])
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, " ", "_")
	label = strings.ReplaceAll(label, ".", "_")
	return label
}

// FieldByFlatLabel resolves a sanitized label back to its field, for reading
// persisted documents. Returns false for unknown labels.
func FieldByFlatLabel(flat string) (Field, bool) {
	for f, label := range labels {
		if sanitizeLabel(label) == flat {
			return f, true
		}
	}
	return "", false
}
