// Package soap implements the UPnP ContentDirectory SOAP engine: parsing
// the SOAPACTION header and envelope body, dispatching Browse/Search/
// GetSearchCapabilities, and rendering UPnP-flavored SOAP faults.
package soap

import "fmt"

// Status is a UPnP ContentDirectory:1 error code, carrying the phrase the
// specification assigns it.
type Status struct {
	Code   int
	Phrase string
}

// The full UPnP ContentDirectory:1 error-code table (UPnP Device
// Architecture §Control, "UPnPError" plus ContentDirectory-specific
// 701-720). Reserved ranges (606-699, 721-899) are intentionally absent.
var (
	InvalidAction                     = Status{401, "Invalid Action"}
	InvalidArgs                       = Status{402, "Invalid Args"}
	InvalidVar                        = Status{404, "Invalid Var"}
	ActionFailed                      = Status{501, "Action Failed"}
	ArgumentValueInvalid              = Status{600, "Argument Value Invalid"}
	ArgumentValueOutOfRange           = Status{601, "Argument Value Out of Range"}
	OptionalActionNotImplemented      = Status{602, "Optional Action Not Implemented"}
	OutOfMemory                       = Status{603, "Out of Memory"}
	HumanInterventionRequired         = Status{604, "Human Intervention Required"}
	StringArgumentTooLong             = Status{605, "String Argument Too Long"}
	NoSuchObject                      = Status{701, "No such object"}
	InvalidCurrentTagValue            = Status{702, "Invalid CurrentTagValue"}
	InvalidNewTagValue                = Status{703, "Invalid NewTagValue"}
	RequiredTag                       = Status{704, "Required tag"}
	ReadOnlyTag                       = Status{705, "Read only tag"}
	ParameterMismatch                 = Status{706, "Parameter Mismatch"}
	UnsupportedOrInvalidSearchCriteria = Status{708, "Unsupported or invalid search criteria"}
	UnsupportedOrInvalidSortCriteria   = Status{709, "Unsupported or invalid sort criteria"}
	NoSuchContainer                   = Status{710, "No such container"}
	RestrictedObject                  = Status{711, "Restricted object"}
	BadMetadata                       = Status{712, "Bad metadata"}
	RestrictedParent                  = Status{713, "Restricted parent object"}
	NoSuchResource                    = Status{714, "No such source resource"}
	SourceResourceAccessDenied        = Status{715, "Source resource access denied"}
	TransferBusy                      = Status{716, "Transfer busy"}
	NoSuchFileTransfer                = Status{717, "No such file transfer"}
	NoSuchDestinationResource         = Status{718, "No such destination resource"}
	DestinationResourceAccessDenied   = Status{719, "Destination resource access denied"}
	CannotProcessTheRequest           = Status{720, "Cannot process the request"}
)

// Fault is a UPnP SOAP fault: always delivered as HTTP 500 with a fault
// envelope carrying errorCode/errorDescription.
type Fault struct {
	Status Status
}

func (f *Fault) Error() string {
	return fmt.Sprintf("soap: %d %s", f.Status.Code, f.Status.Phrase)
}

// Errorf wraps a Status as an error.
func Errorf(s Status) error { return &Fault{Status: s} }
