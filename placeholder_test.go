package medial

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments(t *testing.T) {
	var cases = []struct {
		query    string
		expected []string
	}{
		{
			"SELECT * FROM users WHERE id = 'testid'",
			[]string{"SELECT * FROM users WHERE id = 'testid'"},
		},
		{
			"SELECT * FROM users WHERE id = ?",
			[]string{"SELECT * FROM users WHERE id = ", ""},
		},
		{
			"SELECT * FROM rules WHERE acl_id=?",
			[]string{"SELECT * FROM rules WHERE acl_id=", ""},
		},
		{
			"SELECT * FROM acls WHERE project_id=? AND cloud_id=? AND state='Active'",
			[]string{"SELECT * FROM acls WHERE project_id=", " AND cloud_id=", " AND state='Active'"},
		},
		{
			"SELECT cloud_id, project_id FROM allocations A WHERE id IS ?",
			[]string{"SELECT cloud_id, project_id FROM allocations A WHERE id IS ", ""},
		},
		{
			"SELECT user_id, acl1.access, acl2.access FROM (SELECT * FROM rules WHERE acl_id=?) acl1" +
				" LEFT OUTER JOIN" +
				" (SELECT * FROM rules WHERE acl_id=?) acl2" +
				" USING(user_id)" +
				" UNION" +
				" SELECT user_id, acl1.access, acl2.access FROM" +
				" (SELECT * FROM rules WHERE acl_id=?) acl2" +
				" LEFT OUTER JOIN" +
				" (SELECT * FROM rules WHERE acl_id=?) acl1" +
				" USING(user_id)",
			[]string{
				"SELECT user_id, acl1.access, acl2.access FROM (SELECT * FROM rules WHERE acl_id=",
				") acl1 LEFT OUTER JOIN (SELECT * FROM rules WHERE acl_id=",
				") acl2 USING(user_id) UNION SELECT user_id, acl1.access, acl2.access FROM (SELECT * FROM rules WHERE acl_id=",
				") acl2 LEFT OUTER JOIN (SELECT * FROM rules WHERE acl_id=",
				") acl1 USING(user_id)",
			},
		},
		{
			"SELECT a.id, a.project_id, a.cloud_id, a.state," +
				"   GROUP_CONCAT(q.resource || '=' || q.quota, ', ') AS ask" +
				" FROM quotas q JOIN allocations a ON q.allocation_id=a.id" +
				" WHERE state NOT IN ('Draft')" +
				" GROUP BY a.id, a.state",
			[]string{
				"SELECT a.id, a.project_id, a.cloud_id, a.state," +
					"   GROUP_CONCAT(q.resource || '=' || q.quota, ', ') AS ask" +
					" FROM quotas q JOIN allocations a ON q.allocation_id=a.id" +
					" WHERE state NOT IN ('Draft') GROUP BY a.id, a.state",
			},
		},
		{
			"SELECT cloud_id, GROUP_CONCAT(resources, ', ') FROM" +
				" (SELECT cloud_id, resource || ' = ' || SUM(quota) AS resources FROM" +
				"  quotas JOIN allocations al ON allocation_id=al.id" +
				"  WHERE state IN (?)" +
				"  GROUP BY cloud_id, resource)" +
				" GROUP BY cloud_id",
			[]string{
				"SELECT cloud_id, GROUP_CONCAT(resources, ', ')" +
					" FROM (SELECT cloud_id, resource || ' = ' || SUM(quota) AS resources" +
					" FROM  quotas JOIN allocations al ON allocation_id=al.id  WHERE state IN (",
				")  GROUP BY cloud_id, resource) GROUP BY cloud_id",
			},
		},
		{
			"SELECT resource, a.quota AS alloc1, b.quota AS alloc2 FROM quotas.a" +
				" JOIN quotas.b ON a.allocation_id = ? AND b.allocation_id = ?" +
				" AND a.resource = b.resource AND a.quota != b.quota",
			[]string{
				"SELECT resource, a.quota AS alloc1, b.quota AS alloc2 FROM quotas.a JOIN quotas.b ON a.allocation_id = ",
				" AND b.allocation_id = ",
				" AND a.resource = b.resource AND a.quota != b.quota",
			},
		},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, Segments(tc.query), tc.query)
	}
}

func TestSegmentsLiteralSafety(t *testing.T) {
	var cases = []struct {
		query    string
		expected []string
	}{
		{"", []string{""}},
		{"?", []string{"", ""}},
		{"??", []string{"", "", ""}},
		{"WHERE a = '?'", []string{"WHERE a = '?'"}},
		{"WHERE a = '?' AND b = ?", []string{"WHERE a = '?' AND b = ", ""}},
		{"WHERE a = ? AND b = 'why?' AND c = ?", []string{"WHERE a = ", " AND b = 'why?' AND c = ", ""}},
		// Doubled quotes toggle twice, leaving the literal open.
		{"WHERE a = 'it''s ?' AND b = ?", []string{"WHERE a = 'it''s ?' AND b = ", ""}},
		// An unterminated literal swallows every later marker.
		{"WHERE a = ? AND b = 'open ?", []string{"WHERE a = ", " AND b = 'open ?"}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, Segments(tc.query), tc.query)
	}
}

func TestSegmentsRoundTrip(t *testing.T) {
	var queries = []string{
		"SELECT * FROM products WHERE id = ?",
		"INSERT INTO products (name, description) VALUES (?, ?)",
		"UPDATE t SET a = '?', b = ? WHERE c = 'x''?' AND d = ?",
		"?leading and trailing?",
		"no markers at all",
	}

	for _, q := range queries {
		var segments = Segments(q)
		assert.Equal(t, q, strings.Join(segments, "?"))
		assert.Len(t, segments, CountPlaceholders(q)+1)
	}
}

func TestTokenizerIsSinglePass(t *testing.T) {
	var tk = NewTokenizer("a = ? AND b = ?")

	var got []string
	for tk.Scan() {
		got = append(got, tk.Text())
	}
	require.Equal(t, []string{"a = ", " AND b = ", ""}, got)

	assert.False(t, tk.Scan())
	assert.Equal(t, "", tk.Text())
}

func TestJoinSegments(t *testing.T) {
	var segments = Segments("SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?")

	var out = JoinSegments(segments, func(n int) string {
		return "$" + strings.Repeat("I", n)
	})
	assert.Equal(t, "SELECT * FROM t WHERE a = $I AND b = '?' AND c = $II", out)
}

func TestCountPlaceholders(t *testing.T) {
	assert.Equal(t, 0, CountPlaceholders(""))
	assert.Equal(t, 0, CountPlaceholders("SELECT '?'"))
	assert.Equal(t, 3, CountPlaceholders("INSERT INTO t VALUES (?, ?, '?', ?)"))
}
