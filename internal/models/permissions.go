package models

// Roles carried in the access token.
const (
	RoleAdmin      = "admin"
	RoleReviewer   = "reviewer"
	RolePoster     = "poster"
	RoleContractor = "contractor"
	RoleSystem     = "system"
)

// Permission constants
const (
	// PM request permissions
	PermissionPMRequestRead  = "pm_request:read"
	PermissionPMRequestWrite = "pm_request:write"

	// Money movement
	PermissionReleaseFunds = "funds:release"
	PermissionRefundJob    = "funds:refund"

	// Dispute permissions
	PermissionDisputeRead   = "dispute:read"
	PermissionDisputeVote   = "dispute:vote"
	PermissionDisputeReview = "dispute:review"

	// Admin permissions
	PermissionAuditRead = "audit:read"
)

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionPMRequestRead,
			PermissionPMRequestWrite,
			PermissionReleaseFunds,
			PermissionRefundJob,
			PermissionDisputeRead,
			PermissionDisputeVote,
			PermissionDisputeReview,
			PermissionAuditRead,
		}
	case RoleReviewer:
		return []string{
			PermissionDisputeRead,
			PermissionDisputeVote,
			PermissionDisputeReview,
		}
	case RolePoster:
		return []string{
			PermissionPMRequestRead,
			PermissionPMRequestWrite,
			PermissionReleaseFunds,
			PermissionRefundJob,
			PermissionDisputeRead,
		}
	case RoleContractor:
		return []string{
			PermissionPMRequestRead,
			PermissionPMRequestWrite,
			PermissionDisputeRead,
		}
	default:
		return []string{}
	}
}
