package mlbstats

// Wire types for the subset of the Stats API the client reads.

type scheduleResponse struct {
	Dates []struct {
		Games []scheduleGame `json:"games"`
	} `json:"dates"`
}

type scheduleGame struct {
	GamePk   int    `json:"gamePk"`
	GameDate string `json:"gameDate"`
	Status   struct {
		DetailedState string `json:"detailedState"`
	} `json:"status"`
	Teams struct {
		Away scheduleTeam `json:"away"`
		Home scheduleTeam `json:"home"`
	} `json:"teams"`
}

type scheduleTeam struct {
	Team teamRef `json:"team"`
}

type teamRef struct {
	Name string `json:"name"`
}

type personRef struct {
	FullName string `json:"fullName"`
}

type feedResponse struct {
	GameData struct {
		Status struct {
			DetailedState string `json:"detailedState"`
		} `json:"status"`
		Teams struct {
			Away teamRef `json:"away"`
			Home teamRef `json:"home"`
		} `json:"teams"`
	} `json:"gameData"`
	LiveData struct {
		Linescore linescore `json:"linescore"`
		Plays     struct {
			AllPlays []feedPlay `json:"allPlays"`
		} `json:"plays"`
	} `json:"liveData"`
}

type linescore struct {
	CurrentInning *int  `json:"currentInning"`
	IsTopInning   *bool `json:"isTopInning"`
	Outs          int   `json:"outs"`
	Teams         struct {
		Home struct {
			Runs int `json:"runs"`
		} `json:"home"`
		Away struct {
			Runs int `json:"runs"`
		} `json:"away"`
	} `json:"teams"`
	Offense struct {
		Batter *personRef `json:"batter"`
		First  *personRef `json:"first"`
		Second *personRef `json:"second"`
		Third  *personRef `json:"third"`
	} `json:"offense"`
	Defense struct {
		Pitcher *personRef `json:"pitcher"`
	} `json:"defense"`
}

type feedPlay struct {
	About struct {
		Inning      int  `json:"inning"`
		IsTopInning bool `json:"isTopInning"`
		IsComplete  bool `json:"isComplete"`
		Outs        int  `json:"outs"`
	} `json:"about"`
	Result struct {
		Event       string `json:"event"`
		Description string `json:"description"`
		HomeScore   *int   `json:"homeScore"`
		AwayScore   *int   `json:"awayScore"`
	} `json:"result"`
	Matchup struct {
		Batter  personRef `json:"batter"`
		Pitcher personRef `json:"pitcher"`
	} `json:"matchup"`
	Runners []struct {
		Movement struct {
			OriginBase *string `json:"originBase"`
		} `json:"movement"`
	} `json:"runners"`
}

func (p *personRef) name() string {
	if p == nil {
		return ""
	}
	return p.FullName
}
