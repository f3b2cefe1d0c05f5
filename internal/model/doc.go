// Package model defines the core data types shared across claritymark:
// verdict labels, search candidates, and highlight run reports.
//
// The types in this package are intentionally free of behavior beyond
// formatting and classification. All document mutation lives in the dom
// and highlight packages; all persistence lives in the database package.
package model
