package httpapi

import "portfolio-cms/internal/apperr"

// AuthAction is the closed set of admin-auth actions.
type AuthAction string

const (
	ActionGetTokens AuthAction = "getTokens"
	ActionLogin     AuthAction = "login"
	ActionRefresh   AuthAction = "refresh"
	ActionVerify    AuthAction = "verify"
	ActionRegister  AuthAction = "register"
)

var AuthActions = []AuthAction{ActionGetTokens, ActionLogin, ActionRefresh, ActionVerify, ActionRegister}

// CMSAction is the closed set of crud-content actions.
type CMSAction string

const (
	ActionList       CMSAction = "list"
	ActionGet        CMSAction = "get"
	ActionCreate     CMSAction = "create"
	ActionUpdate     CMSAction = "update"
	ActionDelete     CMSAction = "delete"
	ActionUpload     CMSAction = "upload"
	ActionDeleteFile CMSAction = "deleteFile"
)

var CMSActions = []CMSAction{ActionList, ActionGet, ActionCreate, ActionUpdate, ActionDelete, ActionUpload, ActionDeleteFile}

// documentAction reports whether a targets a collection.
func (a CMSAction) documentAction() bool {
	switch a {
	case ActionList, ActionGet, ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

func invalidAction[T ~string](allowed []T) *apperr.Error {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return apperr.BadRequest("Invalid action").With("allowed", names)
}

// labelInvalid replaces client-supplied values outside a closed set in metric
// labels.
const labelInvalid = "invalid"

func metricLabel[T ~string](v string, allowed []T) string {
	for _, a := range allowed {
		if string(a) == v {
			return v
		}
	}
	return labelInvalid
}
