// Package schema is the field directory for the registration core: the
// enumerated correspondence between director, subscriber, owner and secretary
// fields, their external input identifiers, and their human-readable labels.
// Matching between record kinds goes through this table, not through runtime
// string comparison; NormalizeKey exists only to parse legacy identifiers and
// previously persisted keys.
package schema

import "strings"

// RecordKind identifies a repeatable record collection or the secretary
// singleton.
type RecordKind string

const (
	KindDirector   RecordKind = "director"
	KindSubscriber RecordKind = "subscriber"
	KindOwner      RecordKind = "owner"
	KindSecretary  RecordKind = "secretary"
)

// Valid reports whether k names a known record kind.
func (k RecordKind) Valid() bool {
	switch k {
	case KindDirector, KindSubscriber, KindOwner, KindSecretary:
		return true
	}
	return false
}

// Indexed reports whether records of this kind carry a positional index.
func (k RecordKind) Indexed() bool {
	return k != KindSecretary
}

// Field is a canonical field name, shared across record kinds. The external
// input identifier for a given kind comes from ExternalID.
type Field string

// Personal and residential-address fields, shared by all person records.
const (
	FieldTitle        Field = "title"
	FieldFirstName    Field = "fname"
	FieldMiddleName   Field = "mname"
	FieldSurname      Field = "sname"
	FieldFormerName   Field = "former"
	FieldGender       Field = "gender"
	FieldDateOfBirth  Field = "dob"
	FieldPlaceOfBirth Field = "pob"
	FieldNationality  Field = "nation"
	FieldOccupation   Field = "occupation"
	FieldContact1     Field = "contact1"
	FieldContact2     Field = "contact2"
	FieldEmail        Field = "email"
	FieldTIN          Field = "tin"
	FieldGhanaCard    Field = "ghanaCard"
	FieldResGPS       Field = "resGps"
	FieldResHouse     Field = "resHse"
	FieldResLandmark  Field = "resLandmark"
	FieldResStreet    Field = "resStreet"
	FieldResCity      Field = "resCity"
	FieldResTown      Field = "resTown"
	FieldResDistrict  Field = "resDistrict"
	FieldResRegion    Field = "resRegion"
	FieldResCountry   Field = "resCountry"
)

// Role-specific fields. These live on the role selector inputs of a director
// and on the derived record itself.
const (
	FieldSharePercent    Field = "sharePercent"
	FieldVotingRights    Field = "votingRights"
	FieldDirectPercent   Field = "directPercent"
	FieldIndirectPercent Field = "indirectPercent"
	FieldQualification   Field = "qualification"
)

// Company-level fields.
const (
	FieldCompanyName      Field = "companyName"
	FieldEndWith          Field = "endWith"
	FieldConstitutionType Field = "constitutionType"
	FieldPresentedBy      Field = "presentedBy"
	FieldPresenterTIN     Field = "presenterTin"
	FieldActivities       Field = "activities"
	FieldCapital          Field = "capital"
	FieldEstimatedRevenue Field = "estimatedRevenue"
	FieldNumEmployees     Field = "numOfEmployees"

	FieldOfficeGPS        Field = "officeGps"
	FieldOfficeHouse      Field = "officeHse"
	FieldOfficeLandmark   Field = "officeLandmark"
	FieldOfficeStreet     Field = "officeStreetName"
	FieldOfficeCity       Field = "officeCity"
	FieldOfficeTown       Field = "officeTown"
	FieldOfficeDistrict   Field = "officeDistrict"
	FieldOfficeRegion     Field = "officeRegion"
	FieldOfficePostalType Field = "officePostalType"
	FieldOfficeBoxNumber  Field = "officeBoxNumber"
	FieldOfficeBoxTown    Field = "officeBoxTown"
	FieldOfficeBoxRegion  Field = "officeBoxRegion"
	FieldOfficeContact1   Field = "officeContact1"
	FieldOfficeContact2   Field = "officeContact2"
	FieldOfficeEmail      Field = "officeEmail"
)

// personFields is the ordered set of fields every person record shares.
var personFields = []Field{
	FieldTitle, FieldFirstName, FieldMiddleName, FieldSurname, FieldFormerName,
	FieldGender, FieldDateOfBirth, FieldPlaceOfBirth, FieldNationality,
	FieldOccupation, FieldContact1, FieldContact2, FieldEmail,
	FieldTIN, FieldGhanaCard,
	FieldResGPS, FieldResHouse, FieldResLandmark, FieldResStreet,
	FieldResCity, FieldResTown, FieldResDistrict, FieldResRegion, FieldResCountry,
}

// PersonFields returns the shared person/address field set in display order.
// The returned slice must not be modified.
func PersonFields() []Field {
	return personFields
}

// companyFields is the ordered set of company-level fields.
var companyFields = []Field{
	FieldCompanyName, FieldEndWith, FieldConstitutionType,
	FieldPresentedBy, FieldPresenterTIN, FieldActivities,
	FieldCapital, FieldEstimatedRevenue, FieldNumEmployees,
	FieldOfficeGPS, FieldOfficeHouse, FieldOfficeLandmark, FieldOfficeStreet,
	FieldOfficeCity, FieldOfficeTown, FieldOfficeDistrict, FieldOfficeRegion,
	FieldOfficePostalType, FieldOfficeBoxNumber, FieldOfficeBoxTown,
	FieldOfficeBoxRegion, FieldOfficeContact1, FieldOfficeContact2, FieldOfficeEmail,
}

// CompanyFields returns company-level fields in display order.
// The returned slice must not be modified.
func CompanyFields() []Field {
	return companyFields
}

// roleFields maps each kind to the role-specific fields present on it.
var roleFields = map[RecordKind][]Field{
	KindSubscriber: {FieldSharePercent},
	KindOwner:      {FieldVotingRights, FieldDirectPercent, FieldIndirectPercent},
	KindSecretary:  {FieldQualification},
}

// RoleFields returns the role-specific fields carried by records of kind k.
func RoleFields(k RecordKind) []Field {
	return roleFields[k]
}

// HasField reports whether records of kind k carry field f.
func HasField(k RecordKind, f Field) bool {
	for _, pf := range personFields {
		if pf == f {
			return true
		}
	}
	for _, rf := range roleFields[k] {
		if rf == f {
			return true
		}
	}
	return false
}

// ParseField resolves an API-supplied field name against the directory.
// Accepts canonical names and normalized legacy spellings.
func ParseField(name string) (Field, bool) {
	norm := NormalizeKey(name)
	for _, f := range personFields {
		if NormalizeKey(string(f)) == norm {
			return f, true
		}
	}
	for _, fs := range roleFields {
		for _, f := range fs {
			if NormalizeKey(string(f)) == norm {
				return f, true
			}
		}
	}
	for _, f := range companyFields {
		if NormalizeKey(string(f)) == norm {
			return f, true
		}
	}
	return "", false
}

// NormalizeKey collapses an identifier into the comparable key space the
// legacy data uses: lowercase, whitespace and underscores stripped.
func NormalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "\t", "")
	key = strings.ReplaceAll(key, "_", "")
	return key
}
