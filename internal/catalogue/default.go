package catalogue

import "github.com/foldaway/mrtdown-site-sub000/internal/models"

// Default returns the built-in MRT and LRT lines in display order.
func Default() []models.Line {
	return []models.Line{
		{ID: "NSL", Name: "North South Line", Color: "#d42e12", Kind: "mrt", StartedAt: "1987-11-07",
			NameTranslations: map[string]string{"zh-Hans": "南北线", "ms": "Laluan Utara Selatan", "ta": "வடக்கு தெற்கு பாதை"}},
		{ID: "EWL", Name: "East West Line", Color: "#009645", Kind: "mrt", StartedAt: "1987-12-12",
			NameTranslations: map[string]string{"zh-Hans": "东西线", "ms": "Laluan Timur Barat", "ta": "கிழக்கு மேற்கு பாதை"}},
		{ID: "NEL", Name: "North East Line", Color: "#9900aa", Kind: "mrt", StartedAt: "2003-06-20",
			NameTranslations: map[string]string{"zh-Hans": "东北线", "ms": "Laluan Timur Laut", "ta": "வடகிழக்கு பாதை"}},
		{ID: "CCL", Name: "Circle Line", Color: "#fa9e0d", Kind: "mrt", StartedAt: "2009-05-28",
			NameTranslations: map[string]string{"zh-Hans": "环线", "ms": "Laluan Bulatan", "ta": "வட்டப் பாதை"}},
		{ID: "DTL", Name: "Downtown Line", Color: "#005ec4", Kind: "mrt", StartedAt: "2013-12-22",
			NameTranslations: map[string]string{"zh-Hans": "滨海市区线", "ms": "Laluan Pusat Bandar", "ta": "டவுன்டவுன் பாதை"}},
		{ID: "TEL", Name: "Thomson-East Coast Line", Color: "#9d5b25", Kind: "mrt", StartedAt: "2020-01-31",
			NameTranslations: map[string]string{"zh-Hans": "汤申-东海岸线", "ms": "Laluan Thomson-Pantai Timur", "ta": "தாம்சன்-கிழக்கு கடற்கரை பாதை"}},
		{ID: "BPLRT", Name: "Bukit Panjang LRT", Color: "#748477", Kind: "lrt", StartedAt: "1999-11-06",
			NameTranslations: map[string]string{"zh-Hans": "武吉班让轻轨", "ms": "LRT Bukit Panjang"}},
		{ID: "SKLRT", Name: "Sengkang LRT", Color: "#748477", Kind: "lrt", StartedAt: "2003-01-18",
			NameTranslations: map[string]string{"zh-Hans": "盛港轻轨", "ms": "LRT Sengkang"}},
		{ID: "PGLRT", Name: "Punggol LRT", Color: "#748477", Kind: "lrt", StartedAt: "2005-01-29",
			NameTranslations: map[string]string{"zh-Hans": "榜鹅轻轨", "ms": "LRT Punggol"}},
	}
}
