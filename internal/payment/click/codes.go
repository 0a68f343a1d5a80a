package click

const (
	ActionPrepare  = 0
	ActionComplete = 1
)

// Error codes understood by the Click gateway.
const (
	CodeSuccess            = 0
	CodeSignFailed         = -1
	CodeBadAmount          = -2
	CodeActionNotFound     = -3
	CodeAlreadyPaid        = -4
	CodeNotFound           = -5
	CodeTransactionMissing = -6
	CodeSystemError        = -8
	CodeCancelled          = -9
)

const (
	noteSuccess         = "Success"
	noteSignFailed      = "SIGN CHECK FAILED!"
	noteBadAmount       = "Incorrect parameter amount"
	noteActionNotFound  = "Action not found"
	noteAlreadyPaid     = "Already paid"
	noteTxNotFound      = "Transaction not found"
	noteServiceNotFound = "Service not found"
	noteTxMissing       = "Transaction does not exist"
	noteSystemError     = "System error"
	noteCancelled       = "Transaction cancelled"
	noteDisabled        = "Click is not enabled for this tenant"
	noteBadRequest      = "Invalid request"
)

func actionName(action int) string {
	switch action {
	case ActionPrepare:
		return "prepare"
	case ActionComplete:
		return "complete"
	default:
		return "unknown"
	}
}
