package tracker

// confidence combines hit rate, recent activity, and track age into a single
// [0,1] score used for promotion and death decisions.
//
//	hit_rate        = hits / age
//	recent_activity: 1.0 if misses <= 2, 0.5 if misses <= 5, else 0.1
//	age_factor       = min(age / 10, 1)
func confidence(t *track) float64 {
	if t.age == 0 {
		return 0
	}
	hitRate := float64(t.hits) / float64(t.age)

	var recentActivity float64
	switch {
	case t.misses <= 2:
		recentActivity = 1.0
	case t.misses <= 5:
		recentActivity = 0.5
	default:
		recentActivity = 0.1
	}

	ageFactor := float64(t.age) / 10.0
	if ageFactor > 1 {
		ageFactor = 1
	}

	return hitRate * recentActivity * ageFactor
}

func pendingHitRate(p *pendingTrack) float64 {
	if p.age == 0 {
		return 0
	}
	return float64(p.hits) / float64(p.age)
}
