package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charleschow/mlb-winprob/internal/events"
)

const (
	dividerHeavy = "========================================================================"
	dividerLight = "~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~"
)

// PrintLiveUpdate writes one scoreboard block for a live update. tag is the
// bracketed header label, e.g. "LIVE" or "SWING".
func PrintLiveUpdate(w io.Writer, tag string, lu events.LiveUpdateEvent, at time.Time) {
	divider := dividerLight
	if tag == TagSwing {
		divider = dividerHeavy
	}

	homeShort := shortName(lu.HomeTeam)
	awayShort := shortName(lu.AwayTeam)
	gs := lu.State

	half := "Top"
	if gs.HomeBatting() {
		half = "Bot"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s %s]  game %d  %s\n", tag, at.Local().Format("3:04:05 PM"), lu.GamePk, lu.Status)
	fmt.Fprintf(&b, "%s\n", divider)
	fmt.Fprintf(&b, "  %s @ %s\n", lu.AwayTeam, lu.HomeTeam)
	fmt.Fprintf(&b, "    %-24s%s %d  -  %s %d\n", "Score:", awayShort, lu.ScoreAway, homeShort, lu.ScoreHome)
	fmt.Fprintf(&b, "    %-24s%s %d  |  %d out  |  %s\n", "Situation:", half, gs.Inning, gs.Outs, gs.Runners.Label())
	if lu.Batter != "" || lu.Pitcher != "" {
		fmt.Fprintf(&b, "    %-24s%s vs %s\n", "Matchup:", orDash(lu.Batter), orDash(lu.Pitcher))
	}
	fmt.Fprintf(&b, "    %-24s%s %.1f%%  |  %s %.1f%%",
		"Win probability:", homeShort, lu.WinProbability*100, awayShort, (1-lu.WinProbability)*100)
	if lu.WPDelta != 0 {
		fmt.Fprintf(&b, "  (%s)", fmtDelta(lu.WPDelta))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "    %-24s%.2f (%s)\n", "Leverage:", lu.LeverageIndex, lu.LeverageLabel)
	if lu.TopTactic != "" {
		fmt.Fprintf(&b, "    >>> %s\n", lu.TopTactic)
	}
	fmt.Fprintf(&b, "%s\n", divider)

	fmt.Fprint(w, b.String())
}

// PrintGameFinal writes the closing line for a finished game.
func PrintGameFinal(w io.Writer, gf events.GameFinalEvent, at time.Time) {
	winner := gf.AwayTeam
	if gf.HomeWon {
		winner = gf.HomeTeam
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s %s]  game %d\n", TagFinal, at.Local().Format("3:04:05 PM"), gf.GamePk)
	fmt.Fprintf(&b, "%s\n", dividerHeavy)
	fmt.Fprintf(&b, "  %s %d  -  %s %d\n", gf.AwayTeam, gf.ScoreAway, gf.HomeTeam, gf.ScoreHome)
	fmt.Fprintf(&b, "    %-24s%s\n", "Winner:", winner)
	fmt.Fprintf(&b, "%s\n", dividerHeavy)

	fmt.Fprint(w, b.String())
}

// twoWordNicknames end in a word that is not the club's name on its own.
var twoWordNicknames = map[string]bool{
	"SOX": true, "JAYS": true,
}

func shortName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return name
	}
	last := parts[len(parts)-1]
	if len(parts) > 1 && twoWordNicknames[strings.ToUpper(last)] {
		return parts[len(parts)-2] + " " + last
	}
	return last
}

func fmtDelta(d float64) string {
	return fmt.Sprintf("%+.1f%%", d*100)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
