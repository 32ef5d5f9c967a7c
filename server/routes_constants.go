package server

// Route path constants
const (
	// Gateway-local routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
	RouteAPIRoot = "/api/"

	// Auth
	RouteUserLookup = "/api/auth/user-lookup"
	RouteLogin      = "/api/auth/login"
	RouteLogout     = "/api/auth/logout"

	// Account
	RouteAccountStatus = "/api/account-status"

	// Back-office
	RouteFinanceVouchers = "/api/finance/vouchers"
	RoutePurchases       = "/api/purchases"
	RouteHREducation     = "/api/hr/education"

	// Mobile self-service
	RouteLeaveRequests  = "/api/mobile/leave-requests"
	RouteLeaveBalance   = "/api/mobile/leave-balance"
	RouteApprovals      = "/api/mobile/approvals"
	RouteApprovalAction = "/api/mobile/approvals/action"
	RouteSurveys        = "/api/mobile/surveys"
	RouteSurveySubmit   = "/api/mobile/surveys/submit"
	RouteCV             = "/api/mobile/cv"
	RouteQRCheckin      = "/api/mobile/qr-checkin"
)
