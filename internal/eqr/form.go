package eqr

import "fmt"

// Element IDs on the report viewer page. The ASP.NET control tree makes them
// long, but they are stable across quarters.
const (
	reportsTabID = "__tab_TabContainerReportViewer_TabPanelReporting"
	filingTabID  = "__tab_TabContainerReportViewer_TabPanelReporting_TabContainerReports_TabPanelFilingInquiries"

	panelPrefix      = "TabContainerReportViewer_TabPanelReporting_TabContainerReports_TabPanelFilingInquiries_"
	reportTypeID     = panelPrefix + "ddlReportType"
	groupingID       = panelPrefix + "ddlBy"
	reportPeriodID   = panelPrefix + "ddlReportPeriod"
	authorityID      = panelPrefix + "ddlBalancingAuthority"
	startDateFieldID = panelPrefix + "txtStartDate"
	endDateFieldID   = panelPrefix + "txtEndDate"
	sellerDropdownID = panelPrefix + "ddlSeller"
	exportFormatID   = panelPrefix + "ddlExport"
	submitButtonID   = panelPrefix + "btnSubmitOptional"
)

// selectOptionJS picks a dropdown option by its visible text and dispatches a
// change event so the ASP.NET postback machinery fires. It also arms the
// postback-done flag before the change, since the PageRequestManager hook has
// to be registered ahead of the request. Returns an empty string on success
// and a failure description otherwise.
func selectOptionJS(id, text string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%q);
	if (!el) {
		return "element not found";
	}
	const want = %q;
	let match = null;
	for (const opt of el.options) {
		if (opt.text.trim() === want) {
			match = opt;
			break;
		}
	}
	if (!match) {
		return "option not found";
	}
	window.__eqrPostbackDone = false;
	if (typeof Sys !== "undefined" && Sys.WebForms && Sys.WebForms.PageRequestManager) {
		Sys.WebForms.PageRequestManager.getInstance().add_endRequest(() => {
			window.__eqrPostbackDone = true;
		});
	} else {
		window.__eqrPostbackDone = true;
	}
	el.value = match.value;
	el.dispatchEvent(new Event("change", { bubbles: true }));
	return "";
})()`, id, text)
}

// postbackDoneExpr is polled after a postback-triggering change.
const postbackDoneExpr = `window.__eqrPostbackDone === true`

// optionTextsJS lists the non-blank option texts of a dropdown.
func optionTextsJS(id string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%q);
	if (!el || !el.options) {
		return [];
	}
	return Array.from(el.options)
		.map((opt) => opt.text.trim())
		.filter((text) => text.length > 0);
})()`, id)
}

// elementActiveJS reports whether an element is present, visible, enabled,
// and not flagged with the aspNetDisabled class the viewer uses while a
// partial postback rebuilds the form.
func elementActiveJS(id string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%q);
	return !!el && !el.disabled && el.offsetParent !== null &&
		!el.className.includes("aspNetDisabled");
})()`, id)
}

// submitDisabledJS mirrors elementActiveJS for the submit button, where a
// disabled state is an error rather than something to wait out.
func submitDisabledJS(id string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%q);
	return !el || el.disabled || el.className.includes("aspNetDisabled");
})()`, id)
}
