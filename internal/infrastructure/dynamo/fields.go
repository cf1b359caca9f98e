package dynamo

// DynamoDB attribute names used in update and condition expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable          = "enable"
	fieldUpdatedAt       = "updated_at"
	fieldStatus          = "status"
	fieldHidden          = "hidden"
	fieldRead            = "read"
	fieldReadAt          = "read_at"
	fieldRegisteredCount = "registered_count"
	fieldCapacity        = "capacity"
	fieldAdoptedBy       = "adopted_by"
	fieldRole            = "role"
)

// GSI names created by Bootstrap.
const (
	indexEmail            = "email-index"
	indexKindCreatedAt    = "kind-created_at-index"
	indexStatusCreatedAt  = "status-created_at-index"
	indexOwnerCreatedAt   = "owner_user_id-created_at-index"
	indexUserCreatedAt    = "user_id-created_at-index"
	indexUploadedByUserID = "uploaded_by_user_id-index"
)
