package history

import "testing"

func TestEntryMatchedRule(t *testing.T) {
	e := Entry{MatchedRules: []string{"exact:wordpress:443", "keyword:admin"}}

	if !e.MatchedRule("keyword:admin") {
		t.Fatal("expected keyword:admin to be reported as matched")
	}
	if e.MatchedRule("port:web") {
		t.Fatal("port:web was never matched")
	}
	if (&Entry{}).MatchedRule("exact:wordpress:443") {
		t.Fatal("empty entry matches nothing")
	}
}

func TestQueryMatches(t *testing.T) {
	e := Entry{Tech: "wordpress", Port: 443}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"zero query matches all", Query{}, true},
		{"tech case-insensitive", Query{Tech: "WordPress"}, true},
		{"tech mismatch", Query{Tech: "tomcat"}, false},
		{"port match", Query{Port: 443}, true},
		{"port mismatch", Query{Port: 8080}, false},
		{"both filters ANDed", Query{Tech: "wordpress", Port: 8080}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Matches(&e); got != tt.want {
				t.Fatalf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
