// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Bundled copy used until a page has been saved, and whenever the backend
// is unavailable.

// DefaultHomePage returns the shipped home page copy.
func DefaultHomePage() HomePage {
	return HomePage{
		HeroBadge:       "向上建設",
		HeroTitle:       "向上建設 向下扎根",
		HeroDescription: "打造苗栗高鐵特區質感美學",
		Stats: NewList(
			Stat{Label: "專注", Value: "100%"},
			Stat{Label: "苗栗高鐵建案", Value: "3件"},
			Stat{Label: "工程團隊", Value: "30+ 人"},
		),
		FeaturedSectionTitle:       "精選建案",
		FeaturedSectionDescription: "以苗栗為起點，創造各具風格的建築作品，讓居住的每個空間都充滿著生命力和獨特性",
		ValuePropositions: NewList(
			Block{Title: "特選建材", Description: "我們選用讓住戶安心的品牌，增加住戶幸福感"},
			Block{Title: "獨家選地", Description: "鎖定苗栗高鐵黃金生活圈，串聯學區、商圈與生活機能。"},
			Block{Title: "客製服務", Description: "一對一導覽，提供格局微調、智能家居等客製方案建議。"},
		),
		BrandPromiseTitle:       "品牌承諾",
		BrandPromiseDescription: "我們相信好宅始於透明與信任。從土地評估到交屋維保，我們與住戶保持緊密溝通，確保每一位成員在社區中安心生活。",
		ConsultationTitle:       "預約諮詢",
		ConsultationDescription: "請留下聯絡資訊，我們將盡速與您聯繫，安排建案導覽或客製需求服務。",
	}
}

// DefaultAboutPage returns the shipped about page copy.
func DefaultAboutPage() AboutPage {
	return AboutPage{
		Title:       "Uphouse 的建築哲學：穩健、誠信、貼近生活",
		Subtitle:    "Our Story",
		Description: "Uphouse 建設成立於 2001 年，以「讓家回歸生活本質」為信念。20 餘年來我們專注於住宅開發，從土地評估、規劃設計到售後服務皆由專業團隊親自把關，累計交屋超過 2,800 戶，打造出一座座值得世代傳承的住宅地標。",
		Stats: NewList(
			Stat{Label: "成立年", Value: "2001"},
			Stat{Label: "累計交屋戶數", Value: "2,800+"},
			Stat{Label: "永續建築認證", Value: "12 件"},
		),
		CorePractices: NewList(
			Block{Title: "城市選地策略", Description: "鎖定捷運、學區、醫療資源密集的交通門戶區域，結合生活機能與增值潛力。"},
			Block{Title: "永續建築工法", Description: "導入循環建材、智慧節能監控與低碳施工流程，追求建築與環境的長期共榮。"},
			Block{Title: "住戶全程陪伴", Description: "提供專屬顧問、雲端履約平台、交屋巡檢與保固維修，為住戶建立信任感。"},
		),
		Milestones: NewList(
			Milestone{Year: "2005", Title: "首座北市捷運共構宅完銷", Description: "推出「擎天匯」系列首案，締造 45 天完銷紀錄。"},
			Milestone{Year: "2012", Title: "導入永續建築標準", Description: "跨足淡水新市鎮，取得首座 EEWH 銅級綠建築標章。"},
			Milestone{Year: "2019", Title: "數位交屋服務啟動", Description: "建立雲端履約系統，提供線上選配、保固追蹤與即時客服。"},
			Milestone{Year: "2024", Title: "品牌升級為 Uphouse", Description: "推出永續品牌策略，強化「建築即生活」品牌定位。"},
		),
	}
}

// DefaultContactPage returns the shipped contact page copy.
func DefaultContactPage() ContactPage {
	return ContactPage{
		PageTitle:       "聯絡我們",
		PageDescription: "填寫表單後，我們將盡速與您聯繫",
		AddressLabel:    "地址",
		AddressValue:    "台北市信義區松仁路 123 號 10 樓",
		BusinessHours:   "營業時間：週一至週日 10:00-20:00",
		PhoneLabel:      "服務專線",
		PhoneValue:      "(02) 1234-5678",
		EmailLabel:      "客服信箱",
		EmailValue:      "contact@uphouse.tw",
	}
}

// DefaultProjectsPage returns the shipped project listing intro.
func DefaultProjectsPage() ProjectsPage {
	return ProjectsPage{
		PageTitle:       "建案一覽",
		PageDescription: "我們提供從預售、施工中到已完工的多元住宅選擇。請依照您的購屋需求挑選合適的建案，並來電預約。",
	}
}

func coord(v float64) *float64 { return &v }

// SampleProjects returns the listings shown when no backend data is
// available. Newest first.
func SampleProjects() []Project {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return []Project{
		{
			Slug:         "emerald-lane",
			Name:         "翠華大道",
			Headline:     "信義計畫區 28 坪起複合型豪宅",
			Location:     "台北市信義區松仁路 88 號",
			Status:       StatusPreSale,
			AreaRange:    "32-58 坪",
			UnitType:     "2-4 房",
			PriceRange:   "每坪 120 - 150 萬",
			Description:  "翠華大道以都會綠洲為核心，採用 Low-E 玻璃與智能採光設計，融合 28 項綠建材標章與永續工法，重塑信義計畫區新地標。",
			Highlights:   []string{"雙捷運採光 + 270度 視野", "義大利 SCIC 廚具標配", "B1-B3 恆溫紅酒儲藏室", "整合 AI 智慧安防系統"},
			HeroImage:    "https://images.unsplash.com/photo-1505691938895-1758d7feb511?auto=format&fit=crop&w=1600&q=80",
			Gallery: []string{
				"https://images.unsplash.com/photo-1493809842364-78817add7ffb?auto=format&fit=crop&w=1080&q=80",
				"https://images.unsplash.com/photo-1529429617124-aee747d3a7e2?auto=format&fit=crop&w=1080&q=80",
				"https://images.unsplash.com/photo-1505691723518-36a5ac3be353?auto=format&fit=crop&w=1080&q=80",
			},
			GalleryDeleteTokens: []string{"", "", ""},
			ContactPhone:        "(02) 2345-8765",
			Address:             "台北市信義區信義路五段 150 號",
			Latitude:            coord(25.0330),
			Longitude:           coord(121.5654),
			LaunchDate:          "2025 Q2",
			IsFeatured:          true,
			CreatedAt:           base.Add(48 * time.Hour),
		},
		{
			Slug:         "forest-harbor",
			Name:         "林港匯聚",
			Headline:     "林口 A7 重劃區 68% 綠覆率生態社區",
			Location:     "新北市林口區文化一路八段",
			Status:       StatusUnderConstruction,
			AreaRange:    "28-46 坪",
			UnitType:     "2-3 房",
			PriceRange:   "每坪 52 - 68 萬",
			Description:  "林港匯聚以林口水岸綠帶為設計核心，導入英國 BREEAM 綠建築標準，打造低碳節能、共生共榮的都市生活圈。",
			Highlights:   []string{"740 坪森林會館", "24 小時 AI 保全巡邏", "Sky Lounge 空中俱樂部", "步行 6 分鐘直達機捷 A7"},
			HeroImage:    "https://images.unsplash.com/photo-1487956382158-bb926046304a?auto=format&fit=crop&w=1600&q=80",
			Gallery: []string{
				"https://images.unsplash.com/photo-1502003148287-a82ef80a6abc?auto=format&fit=crop&w=1080&q=80",
				"https://images.unsplash.com/photo-1467803738586-46b7eb7b16cf?auto=format&fit=crop&w=1080&q=80",
				"https://images.unsplash.com/photo-1503387762-592deb58ef4e?auto=format&fit=crop&w=1080&q=80",
			},
			GalleryDeleteTokens: []string{"", "", ""},
			ContactPhone:        "(02) 2987-1122",
			Address:             "新北市林口區文明路 88 號",
			Latitude:            coord(25.0777),
			Longitude:           coord(121.3581),
			LaunchDate:          "2024 Q4",
			IsFeatured:          true,
			CreatedAt:           base.Add(24 * time.Hour),
		},
		{
			Slug:         "harborline",
			Name:         "港線灣",
			Headline:     "淡水捷運紅樹林站首排河岸宅",
			Location:     "新北市淡水區紅樹林二段",
			Status:       StatusCompleted,
			AreaRange:    "35-72 坪",
			UnitType:     "3-5 房",
			PriceRange:   "每坪 45 - 55 萬",
			Description:  "港線灣以河岸第一排視野與 360度 觀音山景，打造北台灣最具指標性綠建築社區，結合物業管理與雲端履約服務。",
			Highlights:   []string{"無敵河岸景觀", "雙車位複合式停車場", "一坪綠地規劃", "智慧雲端物業管理"},
			HeroImage:    "https://images.unsplash.com/photo-1496302662116-35cc4f36df92?auto=format&fit=crop&w=1600&q=80",
			Gallery: []string{
				"https://images.unsplash.com/photo-1493809842364-78817add7ffb?auto=format&fit=crop&w=1080&q=80",
				"https://images.unsplash.com/photo-1494527492857-66e29fb2926e?auto=format&fit=crop&w=1080&q=80",
				"https://images.unsplash.com/photo-1501183007986-d0d080b147f9?auto=format&fit=crop&w=1080&q=80",
			},
			GalleryDeleteTokens: []string{"", "", ""},
			ContactPhone:        "(02) 2626-5566",
			Address:             "新北市淡水區中正東路一段 26 號",
			Latitude:            coord(25.1537),
			Longitude:           coord(121.4595),
			LaunchDate:          "2023 Q3",
			IsFeatured:          false,
			CreatedAt:           base,
		},
	}
}

// FilterSampleProjects applies the listing filters to the bundled samples.
func FilterSampleProjects(status ProjectStatus, featuredOnly bool, excludeSlug string, limit int) []Project {
	var out []Project
	for _, p := range SampleProjects() {
		if status != "" && p.Status != status {
			continue
		}
		if featuredOnly && !p.IsFeatured {
			continue
		}
		if excludeSlug != "" && p.Slug == excludeSlug {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// SampleProject returns the bundled sample with the given slug.
func SampleProject(slug string) (Project, bool) {
	for _, p := range SampleProjects() {
		if p.Slug == slug {
			return p, true
		}
	}
	return Project{}, false
}
