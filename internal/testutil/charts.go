// Package testutil builds charts shared by tests across packages.
package testutil

import (
	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// HotelChart returns a complete group chart with two users:
//
//	location (abstract)
//	  area       categorical nightlife, beach, airport
//	  skytrain   continuous [1, 9] minutes
//	rate         continuous [100, 300]
//
// "aaron" keeps the default seeded preferences. "lisa" prefers a short
// skytrain ride and cheap rooms, and cares mostly about the rate.
func HotelChart() *model.Chart {
	c := model.NewChart("Hotels", "Where to stay", "aaron", model.ChartGroup)
	c.Password = "secret"
	c.RootObjectives = []*model.Objective{
		model.NewAbstractObjective("location", "",
			model.NewPrimitiveObjective("area", "", model.NewCategoricalDomain(false, "nightlife", "beach", "airport")),
			model.NewPrimitiveObjective("skytrain", "", model.NewContinuousDomain(1, 9)),
		),
		model.NewPrimitiveObjective("rate", "", model.NewContinuousDomain(100, 300)),
	}

	add := func(name, area string, skytrain, rate float64) {
		a := model.NewAlternative(name, "")
		a.SetValue("area", model.Text(area))
		a.SetValue("skytrain", model.Number(skytrain))
		a.SetValue("rate", model.Number(rate))
		must(c.AddAlternative(a))
	}
	add("Sheraton", "airport", 9, 300)
	add("Marriott", "beach", 5, 200)
	add("Hostel", "nightlife", 1, 100)

	aaron := model.NewUser("aaron")
	_, err := model.InitializePreferences(c, aaron)
	must(err)
	must(c.UpsertUser(aaron))

	must(c.UpsertUser(Lisa(c)))
	return c
}

// Lisa returns the second user of HotelChart.
func Lisa(c *model.Chart) *model.User {
	u := model.NewUser("lisa")
	area := model.NewDiscreteScoreFunction()
	must(area.SetElementScore(model.Text("nightlife"), 1))
	must(area.SetElementScore(model.Text("beach"), 0.5))
	must(area.SetElementScore(model.Text("airport"), 0))
	u.SetScoreFunction("area", area)

	skytrain := model.NewContinuousScoreFunction(1, 9)
	must(skytrain.SetElementScore(model.Number(1), 1))
	must(skytrain.SetElementScore(model.Number(9), 0))
	u.SetScoreFunction("skytrain", skytrain)

	rate := model.NewContinuousScoreFunction(100, 300)
	must(rate.SetElementScore(model.Number(100), 1))
	must(rate.SetElementScore(model.Number(300), 0))
	u.SetScoreFunction("rate", rate)

	must(u.WeightMap.SetWeight("area", 0.2))
	must(u.WeightMap.SetWeight("skytrain", 0.2))
	must(u.WeightMap.SetWeight("rate", 0.6))
	return u
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
