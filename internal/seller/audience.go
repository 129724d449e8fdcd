package seller

import (
	"context"
	"fmt"

	"github.com/guarzo/sellermargin/internal/category"
	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/logx"
	"github.com/guarzo/sellermargin/internal/model"
	"github.com/guarzo/sellermargin/internal/trend"
	"github.com/guarzo/sellermargin/internal/upstream"
)

const unavailableTarget = "조회 불가"

// DataLab age group keys and the labels we report them under.
var ageGroups = []struct {
	key   string
	label string
}{
	{"10", "10대"},
	{"20", "20대"},
	{"30", "30대"},
	{"40", "40대"},
	{"50", "50대"},
	{"60", "60대+"},
}

// Target estimates the audience of query within a taxonomy category. It
// never fails: without credentials the breakdown is null, and when the
// insight lookup breaks or comes back empty a typical breakdown stands in.
func (s *Service) Target(ctx context.Context, query, categoryName string) *TargetResult {
	if !s.naver.Available() {
		return &TargetResult{Query: query, Audience: model.Audience{MainTarget: unavailableTarget}}
	}

	ratios, err := s.naver.ShoppingAudience(ctx, category.InsightCode(categoryName), query)
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("shopping insight lookup failed, using placeholder audience")
		if errx.KindOf(err) == errx.TransportFailure {
			return &TargetResult{Query: query, Audience: unreachableAudience()}
		}
		return &TargetResult{Query: query, Audience: typicalAudience()}
	}

	audience, ok := audienceFrom(ratios)
	if !ok {
		return &TargetResult{Query: query, Audience: typicalAudience()}
	}
	return &TargetResult{Query: query, Audience: audience}
}

// unreachableAudience is an even split used when the provider could not
// be reached.
func unreachableAudience() model.Audience {
	return model.Audience{
		Gender:     &model.GenderShare{Female: 50, Male: 50},
		AgeGroups:  ageShares(10, 25, 25, 20, 12, 8),
		MainTarget: "20~30대",
	}
}

// typicalAudience is the usual online shopper profile, used when the
// provider answered without data.
func typicalAudience() model.Audience {
	return model.Audience{
		Gender:     &model.GenderShare{Female: 55, Male: 45},
		AgeGroups:  ageShares(5, 41, 35, 14, 4, 1),
		MainTarget: "20~30대 여성",
	}
}

func ageShares(percents ...int) model.AgeShares {
	shares := make(model.AgeShares, 0, len(ageGroups))
	for i, g := range ageGroups {
		shares = append(shares, model.AgeShare{Group: g.label, Percent: percents[i]})
	}
	return shares
}

// audienceFrom converts summed click ratios to whole percents. It reports
// false when either breakdown is empty.
func audienceFrom(r *upstream.AudienceRatios) (model.Audience, bool) {
	female, male := r.Gender["f"], r.Gender["m"]
	var ageTotal float64
	for _, g := range ageGroups {
		ageTotal += r.Age[g.key]
	}
	if female+male <= 0 || ageTotal <= 0 {
		return model.Audience{}, false
	}

	femalePct := int(trend.Round(female/(female+male)*100, 0))
	gender := &model.GenderShare{Female: femalePct, Male: 100 - femalePct}

	percents := make([]int, 0, len(ageGroups))
	for _, g := range ageGroups {
		percents = append(percents, int(trend.Round(r.Age[g.key]/ageTotal*100, 0)))
	}
	ages := ageShares(percents...)

	return model.Audience{
		Gender:     gender,
		AgeGroups:  ages,
		MainTarget: mainTarget(gender, ages),
	}, true
}

// mainTarget names the two adjacent decades with the largest combined
// share, the earlier pair on ties, plus the dominant gender at 60% or more.
func mainTarget(gender *model.GenderShare, ages model.AgeShares) string {
	best := 0
	for i := 1; i+1 < len(ages); i++ {
		if ages[i].Percent+ages[i+1].Percent > ages[best].Percent+ages[best+1].Percent {
			best = i
		}
	}
	target := fmt.Sprintf("%d~%d대", (best+1)*10, (best+2)*10)

	switch {
	case gender.Female >= 60:
		target += " 여성"
	case gender.Male >= 60:
		target += " 남성"
	}
	return target
}
