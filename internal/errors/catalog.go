package errors

var (
	ErrPMRequestNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "PM_REQUEST_NOT_FOUND",
		Message: "pm request not found",
	}
	ErrJobNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "JOB_NOT_FOUND",
		Message: "job not found",
	}
	ErrDisputeNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "DISPUTE_NOT_FOUND",
		Message: "dispute not found",
	}
	ErrTransferNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "TRANSFER_NOT_FOUND",
		Message: "transfer record not found",
	}
	ErrReceiptNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "RECEIPT_NOT_FOUND",
		Message: "receipt not found",
	}

	ErrInvalidAmount = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "amount must not be negative",
	}
	ErrInvalidQuantity = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_QUANTITY",
		Message: "quantity must be a positive integer",
	}
	ErrInvalidCurrency = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_CURRENCY",
		Message: "currency must be a three letter ISO code",
	}
	ErrNoLineItems = &DomainError{
		Kind:    KindValidation,
		Code:    "NO_LINE_ITEMS",
		Message: "request has no line items",
	}
	ErrNoReceipts = &DomainError{
		Kind:    KindValidation,
		Code:    "NO_RECEIPTS",
		Message: "request has no submitted receipts",
	}
	ErrInvalidVote = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_VOTE",
		Message: "vote must be POSTER or CONTRACTOR",
	}
	ErrInvalidDecision = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_DECISION",
		Message: "decision is required when deciding a dispute",
	}
	ErrInvalidLedgerEntry = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_LEDGER_ENTRY",
		Message: "ledger entry is malformed",
	}

	ErrNotJobContractor = &DomainError{
		Kind:    KindForbidden,
		Code:    "NOT_JOB_CONTRACTOR",
		Message: "only the job contractor may perform this action",
	}
	ErrNotJobPoster = &DomainError{
		Kind:    KindForbidden,
		Code:    "NOT_JOB_POSTER",
		Message: "only the job poster may perform this action",
	}
	ErrAdminRequired = &DomainError{
		Kind:    KindForbidden,
		Code:    "ADMIN_REQUIRED",
		Message: "only a top-level administrator may perform this action",
	}
	ErrReviewerRequired = &DomainError{
		Kind:    KindForbidden,
		Code:    "REVIEWER_REQUIRED",
		Message: "reviewer or administrator role required",
	}

	ErrStatusChanged = &DomainError{
		Kind:    KindConflict,
		Code:    "STATUS_CHANGED",
		Message: "record was modified concurrently",
	}
	ErrReleaseFrozen = &DomainError{
		Kind:    KindConflict,
		Code:    "RELEASE_FROZEN",
		Message: "job has an unresolved dispute; money movement is frozen",
	}
	ErrDisputeAlreadyOpen = &DomainError{
		Kind:    KindConflict,
		Code:    "DISPUTE_ALREADY_OPEN",
		Message: "job already has an unresolved dispute",
	}
	ErrDuplicateAIVote = &DomainError{
		Kind:    KindConflict,
		Code:    "DUPLICATE_ACTIVE_AI_VOTE",
		Message: "dispute already has an active advisory opinion",
	}
	ErrNotEditable = &DomainError{
		Kind:    KindConflict,
		Code:    "PM_REQUEST_NOT_EDITABLE",
		Message: "request can only be edited while in draft",
	}
	ErrLedgerImmutable = &DomainError{
		Kind:    KindConflict,
		Code:    "LEDGER_IMMUTABLE",
		Message: "ledger entries cannot be modified",
	}
)
