// Package store implements the Credential & Session Store (CSS), Case
// Store (CS), and Name-Search Store (NSS) from spec.md §2 on top of Redis,
// following the key-naming convention ("cnpj:{cnpj}") already used by the
// teacher's CacheService/CNPJService.
package store

import "github.com/nexconsult/zipcase/internal/models"

func userCredentialsKey(userID string) string { return "user:" + userID + ":credentials" }
func userSessionKey(userID string) string     { return "user:" + userID + ":session" }
func userAgentKey(userID string) string       { return "user:" + userID + ":agent" }

const userAgentCollectionKey = "useragents:collection"

func caseIDKey(caseNumber models.CaseNumber) string { return "case:" + string(caseNumber) + ":id" }
func caseSummaryKey(caseNumber models.CaseNumber) string {
	return "case:" + string(caseNumber) + ":summary"
}

func nameSearchKey(searchID string) string { return "namesearch:" + searchID }
