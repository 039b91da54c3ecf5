package alert

import "github.com/mr1hm/go-coastal-alerts/internal/models"

// defaultActions is the recommended-action table keyed by alert type and
// severity. Types without severity-specific guidance share one list across
// all levels. NewFactory checks that every pair resolves to something.
func defaultActions() map[models.AlertType]map[models.Severity][]string {
	tiered := map[models.AlertType]map[models.Severity][]string{
		models.AlertTypeStormSurge: {
			models.SeverityLow: {
				"Monitor coastal conditions",
				"Secure loose items near waterfront",
				"Check emergency supplies",
			},
			models.SeverityMedium: {
				"Avoid low-lying coastal areas",
				"Secure boats and marine equipment",
				"Prepare for possible evacuation",
			},
			models.SeverityHigh: {
				"Evacuate low-lying areas immediately",
				"Seek higher ground",
				"Avoid driving through flooded areas",
			},
			models.SeverityCritical: {
				"IMMEDIATE EVACUATION REQUIRED",
				"Move to designated emergency shelters",
				"Follow official emergency instructions",
			},
		},
		models.AlertTypeTsunamiWarning: {
			models.SeverityLow: {
				"Monitor official tsunami advisories",
				"Stay clear of beaches and harbors",
			},
			models.SeverityMedium: {
				"Move away from the shoreline",
				"Prepare for possible evacuation",
				"Keep emergency kit accessible",
			},
			models.SeverityHigh: {
				"Evacuate coastal zones immediately",
				"Move to high ground or inland",
				"Do not return until authorities declare it safe",
			},
			models.SeverityCritical: {
				"IMMEDIATE EVACUATION REQUIRED",
				"Move to highest available ground now",
				"Follow official emergency instructions",
			},
		},
		models.AlertTypeOilSpill: {
			models.SeverityLow: {
				"Report spill to authorities",
				"Avoid affected water areas",
				"Do not touch contaminated materials",
			},
			models.SeverityMedium: {
				"Evacuate immediate spill area",
				"Close water intakes",
				"Deploy containment measures",
			},
			models.SeverityHigh: {
				"Activate emergency response teams",
				"Establish exclusion zones",
				"Begin wildlife protection measures",
			},
			models.SeverityCritical: {
				"Full emergency response activation",
				"Evacuate coastal communities",
				"Implement marine traffic restrictions",
			},
		},
	}

	flat := map[models.AlertType][]string{
		models.AlertTypeIllegalDumping: {
			"Report to environmental authorities",
			"Document with photos/video",
			"Avoid direct contact with materials",
			"Secure area if safe to do so",
		},
		models.AlertTypeCoastalErosion: {
			"Keep clear of unstable cliff edges and banks",
			"Report structural damage to local authorities",
			"Monitor shoreline changes",
		},
		models.AlertTypeSeaLevelRise: {
			"Monitor tide gauges and official bulletins",
			"Inspect flood defenses and drainage",
			"Prepare low-lying property for inundation",
		},
		models.AlertTypeAlgalBloom: {
			"Avoid water contact in affected areas",
			"Suspend shellfish harvesting until cleared",
			"Report discolored water to authorities",
		},
		models.AlertTypeExtremeWeather: {
			"Secure vessels and outdoor equipment",
			"Avoid unnecessary marine operations",
			"Follow official weather advisories",
		},
		models.AlertTypeUnauthorizedConstruction: {
			"Report activity to coastal zone authorities",
			"Document the site if safe to do so",
			"Do not confront operators directly",
		},
		models.AlertTypePollutionEvent: {
			"Avoid affected water areas",
			"Report observations to environmental authorities",
			"Monitor official guidance for health advisories",
		},
	}

	actions := make(map[models.AlertType]map[models.Severity][]string, len(models.AlertTypes()))
	for _, t := range models.AlertTypes() {
		if bySeverity, ok := tiered[t]; ok {
			actions[t] = bySeverity
			continue
		}
		bySeverity := make(map[models.Severity][]string, 4)
		for sev := models.SeverityLow; sev <= models.SeverityCritical; sev++ {
			bySeverity[sev] = flat[t]
		}
		actions[t] = bySeverity
	}
	return actions
}
