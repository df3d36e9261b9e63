package conformance_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func leadRecord(lastName string) map[string]any {
	return map[string]any{
		"attributes": map[string]string{"type": "Lead"},
		"LastName":   lastName,
		"Company":    "Jackson Controls",
	}
}

func TestInsertCollection(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodPost, basePath+"/composite/sobjects", map[string]any{
		"allOrNone": false,
		"records":   []map[string]any{leadRecord("Carter"), leadRecord("Kay"), leadRecord("Willard")},
	})
	mustStatus(t, resp, http.StatusOK)
	results := readJSONArray(t, resp)

	if len(results) != 3 {
		t.Fatalf("results length = %d, want 3", len(results))
	}
	for i, res := range results {
		if res["success"] != true {
			t.Errorf("result %d: success = %v (%v)", i, res["success"], res["errors"])
		}
		id, _ := res["id"].(string)
		if !strings.HasPrefix(id, "00Q") {
			t.Errorf("result %d: id = %q, want 00Q prefix", i, id)
		}
	}
}

func TestInsertCollectionPartialFailure(t *testing.T) {
	resetServer(t)

	bad := map[string]any{
		"attributes": map[string]string{"type": "Lead"},
		"LastName":   "NoCompany",
	}

	resp := doRequest(t, http.MethodPost, basePath+"/composite/sobjects", map[string]any{
		"allOrNone": false,
		"records":   []map[string]any{leadRecord("Carter"), bad},
	})
	mustStatus(t, resp, http.StatusOK)
	results := readJSONArray(t, resp)

	if results[0]["success"] != true {
		t.Errorf("valid record failed: %v", results[0])
	}
	if results[1]["success"] != false {
		t.Fatalf("invalid record did not fail: %v", results[1])
	}
	errs, _ := results[1]["errors"].([]any)
	if len(errs) == 0 {
		t.Fatal("failed record carries no errors")
	}
	e, _ := errs[0].(map[string]any)
	if e["statusCode"] != "REQUIRED_FIELD_MISSING" {
		t.Errorf("statusCode = %v, want REQUIRED_FIELD_MISSING", e["statusCode"])
	}
}

func TestInsertCollectionAllOrNoneRollsBack(t *testing.T) {
	resetServer(t)

	bad := map[string]any{
		"attributes": map[string]string{"type": "Lead"},
		"LastName":   "NoCompany",
	}

	resp := doRequest(t, http.MethodPost, basePath+"/composite/sobjects", map[string]any{
		"allOrNone": true,
		"records":   []map[string]any{leadRecord("Carter"), bad},
	})
	mustStatus(t, resp, http.StatusOK)
	results := readJSONArray(t, resp)

	// The offender keeps its own error; the rest report the rollback.
	errs0, _ := results[0]["errors"].([]any)
	e0, _ := errs0[0].(map[string]any)
	if e0["statusCode"] != "ALL_OR_NONE_OPERATION_ROLLED_BACK" {
		t.Errorf("statusCode = %v, want ALL_OR_NONE_OPERATION_ROLLED_BACK", e0["statusCode"])
	}
	errs1, _ := results[1]["errors"].([]any)
	e1, _ := errs1[0].(map[string]any)
	if e1["statusCode"] != "REQUIRED_FIELD_MISSING" {
		t.Errorf("statusCode = %v, want REQUIRED_FIELD_MISSING", e1["statusCode"])
	}

	// Nothing was written.
	qresp := doRequest(t, http.MethodGet, queryURL("SELECT Id FROM Lead"), nil)
	body := readJSON(t, qresp)
	if body["totalSize"] != float64(0) {
		t.Errorf("totalSize = %v, want 0 after rollback", body["totalSize"])
	}
}

func TestUpdateCollection(t *testing.T) {
	resetServer(t)

	id1 := createAccount(t, map[string]any{"Name": "Acme One"})
	id2 := createAccount(t, map[string]any{"Name": "Acme Two"})

	resp := doRequest(t, http.MethodPatch, basePath+"/composite/sobjects", map[string]any{
		"allOrNone": true,
		"records": []map[string]any{
			{"attributes": map[string]string{"type": "Account"}, "Id": id1, "Industry": "Energy"},
			{"attributes": map[string]string{"type": "Account"}, "Id": id2, "Industry": "Apparel"},
		},
	})
	mustStatus(t, resp, http.StatusOK)
	results := readJSONArray(t, resp)
	for i, res := range results {
		if res["success"] != true {
			t.Errorf("result %d: %v", i, res)
		}
	}

	resp = doRequest(t, http.MethodGet, basePath+"/sobjects/Account/"+id1, nil)
	rec := readJSON(t, resp)
	if rec["Industry"] != "Energy" {
		t.Errorf("Industry = %v after collection update", rec["Industry"])
	}
}

func TestUpsertCollectionByExternalID(t *testing.T) {
	resetServer(t)

	existing := createAccount(t, map[string]any{"Name": "Dickenson plc", "AccountNumber": "CD-0001"})

	resp := doRequest(t, http.MethodPatch, basePath+"/composite/sobjects/Account/AccountNumber", map[string]any{
		"allOrNone": true,
		"records": []map[string]any{
			{"attributes": map[string]string{"type": "Account"}, "AccountNumber": "CD-0001", "Name": "Dickenson Updated"},
			{"attributes": map[string]string{"type": "Account"}, "AccountNumber": "CD-0002", "Name": "GenePoint"},
		},
	})
	mustStatus(t, resp, http.StatusOK)
	results := readJSONArray(t, resp)

	if results[0]["created"] == true {
		t.Error("existing match reported created")
	}
	if results[0]["id"] != existing {
		t.Errorf("matched id = %v, want %v", results[0]["id"], existing)
	}
	if results[1]["created"] != true {
		t.Error("new match not reported created")
	}
}

func TestCollectionMixedTypesRejected(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodPost, basePath+"/composite/sobjects", map[string]any{
		"records": []map[string]any{
			leadRecord("Carter"),
			{"attributes": map[string]string{"type": "Account"}, "Name": "Acme"},
		},
	})
	mustStatus(t, resp, http.StatusBadRequest)
}

func TestDeleteCollectionAcrossTypes(t *testing.T) {
	resetServer(t)

	acctID := createAccount(t, map[string]any{"Name": "Acme"})

	resp := doRequest(t, http.MethodPost, basePath+"/sobjects/Lead",
		map[string]any{"LastName": "Carter", "Company": "Jackson Controls"})
	mustStatus(t, resp, http.StatusCreated)
	leadID, _ := readJSON(t, resp)["id"].(string)

	ids := url.QueryEscape(acctID + "," + leadID + ",001ZZZZZZZZZZZZ")
	resp = doRequest(t, http.MethodDelete, basePath+"/composite/sobjects?ids="+ids, nil)
	mustStatus(t, resp, http.StatusOK)
	results := readJSONArray(t, resp)

	if len(results) != 3 {
		t.Fatalf("results length = %d, want 3", len(results))
	}
	if results[0]["success"] != true || results[1]["success"] != true {
		t.Errorf("existing records not deleted: %v", results)
	}
	if results[2]["success"] != false {
		t.Errorf("unknown id reported success: %v", results[2])
	}
}
