// Package annotations reads "@name value" directives from documentation
// comments.
//
// A comment such as
//
//	// User is persisted in the accounts table.
//	//
//	// @table "accounts"
//	// @cache {ttl: 300, tags: [users, "hot"]}
//	// @index email
//	// @index created_at
//	// @audited
//
// parses into a Bag holding table = "accounts", cache = {ttl: 300,
// tags: ["users", "hot"]}, index = ["email", "created_at"] and
// audited = true.
//
// Values follow a small grammar: quoted strings, true/false/null, integers,
// floats, [lists] and {maps}, nested freely. Anything else is kept verbatim
// as a string, so parsing never fails. A RuleSet can force the values of
// selected names to a given Kind.
//
// Reader ties the parser to a CommentSource (see package gosource for one
// backed by Go source code) and an optional Cache.
package annotations
