package mlbstats

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// teamAliases maps common short names and abbreviations to the Stats API
// team name, all in normalized form.
var teamAliases = map[string]string{
	"ari": "arizona diamondbacks", "dbacks": "arizona diamondbacks", "d-backs": "arizona diamondbacks",
	"atl": "atlanta braves",
	"bal": "baltimore orioles", "o's": "baltimore orioles",
	"bos": "boston red sox",
	"chc": "chicago cubs", "cubs": "chicago cubs",
	"cws": "chicago white sox", "chw": "chicago white sox",
	"cin": "cincinnati reds",
	"cle": "cleveland guardians", "guards": "cleveland guardians",
	"col": "colorado rockies",
	"det": "detroit tigers",
	"hou": "houston astros", "stros": "houston astros",
	"kc": "kansas city royals", "kcr": "kansas city royals",
	"laa": "los angeles angels", "halos": "los angeles angels",
	"lad": "los angeles dodgers", "dodgers": "los angeles dodgers",
	"mia": "miami marlins",
	"mil": "milwaukee brewers", "brew crew": "milwaukee brewers",
	"min": "minnesota twins",
	"nym": "new york mets", "mets": "new york mets",
	"nyy": "new york yankees", "yanks": "new york yankees",
	"oak": "athletics", "a's": "athletics", "oakland athletics": "athletics",
	"phi": "philadelphia phillies", "phils": "philadelphia phillies",
	"pit": "pittsburgh pirates", "bucs": "pittsburgh pirates",
	"sd": "san diego padres", "sdp": "san diego padres", "friars": "san diego padres",
	"sf": "san francisco giants", "sfg": "san francisco giants",
	"sea": "seattle mariners", "m's": "seattle mariners",
	"stl": "st. louis cardinals", "cards": "st. louis cardinals", "saint louis cardinals": "st. louis cardinals",
	"tb": "tampa bay rays", "tbr": "tampa bay rays",
	"tex": "texas rangers",
	"tor": "toronto blue jays", "jays": "toronto blue jays",
	"wsh": "washington nationals", "was": "washington nationals", "nats": "washington nationals",
}

// Normalize lowercases, strips diacritics and collapses whitespace, then
// resolves through the alias table.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	if canonical, ok := teamAliases[s]; ok {
		return canonical
	}
	return s
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchTeam reports whether query names the team called name. A query
// matches on alias, full name, or any whole word run inside the name
// ("yankees", "red sox").
func MatchTeam(name, query string) bool {
	n, q := Normalize(name), Normalize(query)
	if n == "" || q == "" {
		return false
	}
	if n == q {
		return true
	}
	return strings.Contains(" "+n+" ", " "+q+" ")
}
