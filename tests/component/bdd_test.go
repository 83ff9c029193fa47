//go:build component
// +build component

package component

import "net/http"

func (s *ComponentTestSuite) TestCreateRoute() {
	given, when, then := s.gherkin()

	given().
		anAdmin().
		aCollector().
		aResident().
		assignedRequestsAt("3 Elm Street", "2 Elm Street", "1 Elm Street")

	when().
		anAdminCreatesTodaysRoute()

	then().
		theRouteIsCreated().
		theVisitationOrderFollowsTheAddresses().
		theCollectorSeesTheRouteWithItsStops().
		anEventForTheRouteCreationWillEventuallyBeProduced()
}

func (s *ComponentTestSuite) TestOneRoutePerCollectorAndDay() {
	given, when, then := s.gherkin()

	given().
		anAdmin().
		aCollector().
		aResident().
		assignedRequestsAt("1 Elm Street").
		anExistingRoute()

	when().
		anAdminCreatesTodaysRoute()

	then().
		theRequestIsRejectedWith(http.StatusConflict, "CONFLICT")
}

func (s *ComponentTestSuite) TestCancelledRequestLeavesTheRoute() {
	given, when, then := s.gherkin()

	given().
		anAdmin().
		aCollector().
		aResident().
		assignedRequestsAt("2 Oak Avenue", "1 Oak Avenue").
		anExistingRoute()

	when().
		theResidentCancelsTheFirstRequest()

	then().
		theRouteEventuallyNoLongerContainsIt()
}

func (s *ComponentTestSuite) TestRouteLifecycle() {
	given, when, then := s.gherkin()

	given().
		anAdmin().
		aCollector().
		aResident().
		assignedRequestsAt("1 Pine Road").
		anExistingRoute()

	when().
		theCollectorStartsTheRoute()

	then().
		theRouteIsActive().
		anEventForTheRouteActivationWillEventuallyBeProduced()

	when().
		theCollectorTriesToCompleteItTwice()

	then().
		theRequestIsRejectedWith(http.StatusConflict, "INVALID_TRANSITION")
}
