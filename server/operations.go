package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/hr-gateway/forward"
)

// forwardedRoute binds an inbound route to the upstream operation it relays.
type forwardedRoute struct {
	Route     string
	Op        forward.Operation
	Protected bool // Subject to session token enforcement when enabled
}

// forwardedRoutes is the complete table of relayed business calls.
func (s *Server) forwardedRoutes() []forwardedRoute {
	return []forwardedRoute{
		{Route: RouteAccountStatus, Op: forward.Operation{
			Name: "account-status", Method: http.MethodGet, Path: "account-status",
		}},
		{Route: RouteUserLookup, Op: forward.Operation{
			Name: "user-lookup", Method: http.MethodGet, Path: "auth/user-lookup",
			Timeout: 10 * time.Second, AllowFallback: true,
		}},
		{Route: RouteLogin, Op: forward.Operation{
			Name: "login", Method: http.MethodPost, Path: "auth/login",
			Timeout: 10 * time.Second, RequiredFields: []string{"username", "password"},
			OnSuccess: s.issueSessionToken,
		}},
		{Route: RouteFinanceVouchers, Protected: true, Op: forward.Operation{
			Name: "finance-vouchers", Method: http.MethodGet, Path: "finance/vouchers",
			Timeout: 100 * time.Second, Envelope: true,
		}},
		{Route: RoutePurchases, Protected: true, Op: forward.Operation{
			Name: "purchases", Method: http.MethodGet, Path: "purchases",
			Timeout: 100 * time.Second, Envelope: true,
		}},
		{Route: RouteHREducation, Protected: true, Op: forward.Operation{
			Name: "hr-education", Method: http.MethodGet, Path: "hr/education",
			AlternatePaths: []string{"hr/egitim"},
		}},
		{Route: RouteLeaveRequests, Protected: true, Op: forward.Operation{
			Name: "leave-requests", Method: http.MethodGet, Path: "mobile/leave-requests",
		}},
		{Route: RouteLeaveRequests, Protected: true, Op: forward.Operation{
			Name: "leave-request-create", Method: http.MethodPost, Path: "mobile/leave-requests",
			RequiredFields: []string{"PERSID", "LEAVETYPE", "STARTDATE", "ENDDATE"},
		}},
		{Route: RouteLeaveBalance, Protected: true, Op: forward.Operation{
			Name: "leave-balance", Method: http.MethodGet, Path: "mobile/leave-balance",
			AlternatePaths: []string{"mobile/izin-bakiye"},
		}},
		{Route: RouteApprovals, Protected: true, Op: forward.Operation{
			Name: "approvals", Method: http.MethodGet, Path: "mobile/approvals",
		}},
		{Route: RouteApprovalAction, Protected: true, Op: forward.Operation{
			Name: "approval-action", Method: http.MethodPost, Path: "mobile/approvals/action",
			RequiredFields: []string{"ID", "ACTION"}, Validate: forward.ValidateApprovalAction,
		}},
		{Route: RouteSurveys, Protected: true, Op: forward.Operation{
			Name: "surveys", Method: http.MethodGet, Path: "mobile/surveys",
		}},
		{Route: RouteSurveySubmit, Protected: true, Op: forward.Operation{
			Name: "survey-submit", Method: http.MethodPost, Path: "mobile/surveys/submit",
			RequiredFields: []string{"surveyId"}, Validate: forward.ValidateSurveySubmission,
		}},
		{Route: RouteCV, Protected: true, Op: forward.Operation{
			Name: "cv-submit", Method: http.MethodPost, Path: "mobile/cv",
			Timeout: 60 * time.Second, Validate: forward.ValidateCV,
		}},
		{Route: RouteQRCheckin, Protected: true, Op: forward.Operation{
			Name: "qr-checkin", Method: http.MethodPost, Path: "mobile/qr-checkin",
			RequiredFields: []string{"PERSID", "DATEINFO", "TIMEINFO", "GPS", "GPS_X", "GPS_Y", "GATEID"},
			TimeoutStatus:  http.StatusGatewayTimeout,
		}},
	}
}
