package catalog

import "github.com/mmeshcher/lot-auction/internal/model"

// SeedLots возвращает стартовый набор лотов, которым заполняется каталог при запуске.
func SeedLots() []model.Lot {
	return []model.Lot{
		{ID: "1", LotSpec: model.LotSpec{
			Name: "Virat Kohli", Role: "Batsman", Country: "India", BasePrice: 2_000_000,
			BattingAvg: 58.7,
			Stats:      model.Stats{Matches: 254, Runs: 12169, StrikeRate: 92.7, HighestScore: 183, Wickets: 4, Economy: 6.2},
		}},
		{ID: "2", LotSpec: model.LotSpec{
			Name: "Jasprit Bumrah", Role: "Bowler", Country: "India", BasePrice: 1_500_000,
			BowlingAvg: 21.6,
			Stats:      model.Stats{Matches: 128, Wickets: 142, Economy: 4.6, BestBowling: "6/19", Runs: 342, StrikeRate: 84.3},
		}},
		{ID: "3", LotSpec: model.LotSpec{
			Name: "Ben Stokes", Role: "All-rounder", Country: "England", BasePrice: 1_800_000,
			BattingAvg: 38.2, BowlingAvg: 31.5,
			Stats: model.Stats{Matches: 152, Runs: 3159, Wickets: 74, StrikeRate: 95.1, Economy: 6.1, HighestScore: 102, BestBowling: "5/61"},
		}},
		{ID: "4", LotSpec: model.LotSpec{
			Name: "Kane Williamson", Role: "Batsman", Country: "New Zealand", BasePrice: 1_700_000,
			BattingAvg: 47.8,
			Stats:      model.Stats{Matches: 157, Runs: 6173, StrikeRate: 81.3, HighestScore: 148, Wickets: 3, Economy: 5.8},
		}},
		{ID: "5", LotSpec: model.LotSpec{
			Name: "Rashid Khan", Role: "Bowler", Country: "Afghanistan", BasePrice: 1_600_000,
			BowlingAvg: 18.7,
			Stats:      model.Stats{Matches: 87, Wickets: 162, Economy: 4.2, BestBowling: "7/18", Runs: 874, StrikeRate: 103.2},
		}},
	}
}
