package store

import "fmt"

// BuiltinSongs is the starter library shipped with the app. Fixed ids keep
// seeding idempotent and keep favorites stable across reseeds.
var BuiltinSongs = []Song{
	{
		ID:        "builtin-1",
		Title:     "Amazing Grace",
		Reference: "Psalm 103:8",
		Category:  CategoryHymn,
		Image:     "https://images.unsplash.com/photo-1519810755548-39cd217da494?auto=format&fit=crop&q=80&w=800",
		Builtin:   true,
		Lyrics: []string{
			"Amazing grace! How sweet the sound",
			"That saved a wretch like me!",
			"I once was lost, but now am found;",
			"Was blind, but now I see.",
			"",
			"'Twas grace that taught my heart to fear,",
			"And grace my fears relieved;",
			"How precious did that grace appear",
			"The hour I first believed.",
			"",
			"Through many dangers, toils and snares,",
			"I have already come;",
			"'Tis grace hath brought me safe thus far,",
			"And grace will lead me home.",
		},
	},
	{
		ID:        "builtin-2",
		Title:     "Jesus Loves Me",
		Reference: "Matthew 19:14",
		Category:  CategoryKids,
		Image:     "https://images.unsplash.com/photo-1484662020986-75935d2ebc66?auto=format&fit=crop&q=80&w=800",
		Builtin:   true,
		Lyrics: []string{
			"Jesus loves me! This I know,",
			"For the Bible tells me so;",
			"Little ones to Him belong;",
			"They are weak, but He is strong.",
			"",
			"Yes, Jesus loves me!",
			"Yes, Jesus loves me!",
			"Yes, Jesus loves me!",
			"The Bible tells me so.",
			"",
			"Jesus loves me! He who died",
			"Heaven's gate to open wide;",
			"He will wash away my sin,",
			"Let His little child come in.",
		},
	},
	{
		ID:        "builtin-3",
		Title:     "How Great Thou Art",
		Reference: "Psalm 145:3",
		Category:  CategoryWorship,
		Image:     "https://images.unsplash.com/photo-1464822759023-fed622ff2c3b?auto=format&fit=crop&q=80&w=800",
		Builtin:   true,
		Lyrics: []string{
			"O Lord my God, when I in awesome wonder",
			"Consider all the worlds Thy hands have made,",
			"I see the stars, I hear the rolling thunder,",
			"Thy power throughout the universe displayed.",
			"",
			"Then sings my soul, my Savior God, to Thee,",
			"How great Thou art, how great Thou art!",
			"Then sings my soul, my Savior God, to Thee,",
			"How great Thou art, how great Thou art!",
		},
	},
	{
		ID:        "builtin-4",
		Title:     "Great Is Thy Faithfulness",
		Reference: "Lamentations 3:22-23",
		Category:  CategoryHymn,
		Image:     "https://images.unsplash.com/photo-1470770841072-f978cf4d019e?auto=format&fit=crop&q=80&w=800",
		Builtin:   true,
		Lyrics: []string{
			"Great is Thy faithfulness, O God my Father,",
			"There is no shadow of turning with Thee;",
			"Thou changest not, Thy compassions, they fail not",
			"As Thou hast been Thou forever wilt be.",
			"",
			"Great is Thy faithfulness! Great is Thy faithfulness!",
			"Morning by morning new mercies I see;",
			"All I have needed Thy hand hath provided—",
			"Great is Thy faithfulness, Lord, unto me!",
		},
	},
}

// BuiltinStudies are pre-cached explanations available before the first AI call.
var BuiltinStudies = []SavedStudy{
	{
		ID:        "pre-1",
		Reference: "যোহন ৩:১৬",
		Builtin:   true,
		Content: "১. পদ: \"কারণ ঈশ্বর জগতকে এমন প্রেম করিলেন যে, আপনার একজাত পুত্রকে দান করিলেন, যেন যে কেহ তাঁহাতে বিশ্বাস করে, সে বিনষ্ট না হয়, কিন্তু অনন্ত জীবন পায়।\"\n\n" +
			"২. প্রেক্ষাপট: যীশু এবং নিকদীমের কথোপকথনের অংশ এটি। ঈশ্বর যে কেবল যিহূদীদের নয়, সারা জগতকে ভালোবাসেন তা এখানে স্পষ্ট।\n\n" +
			"৩. গভীর অর্থ: ঈশ্বরের ভালোবাসা নিঃস্বার্থ এবং সীমাহীন। তিনি আমাদের উদ্ধারের জন্য সবচেয়ে বড় ত্যাগ স্বীকার করেছেন।\n\n" +
			"৪. জীবনের প্রয়োগ: আমরা যখনই একাকীত্ব বা পাপবোধে ভুগি, তখন আমাদের মনে রাখা উচিত যে ঈশ্বর আমাদের জন্য পথ খুলে রেখেছেন। বিশ্বাসই মুক্তির একমাত্র চাবিকাঠি।",
	},
	{
		ID:        "pre-2",
		Reference: "গীতসংহিতা ২৩:১",
		Builtin:   true,
		Content: "১. পদ: \"সদাপ্রভু আমার পালক; আমার অভাব হইবে না।\"\n\n" +
			"২. প্রেক্ষাপট: রাজা দায়ূদের লেখা একটি প্রার্থনা। একজন মেষপালক যেভাবে তার মেষদের রক্ষা করেন, ঈশ্বরও আমাদের সেভাবে পরিচালনা করেন।\n\n" +
			"৩. গভীর অর্থ: ঈশ্বর আমাদের কেবল প্রয়োজনীয়তাই মেটান না, তিনি আমাদের বিপদে শান্তি ও আশ্বাস দেন।\n\n" +
			"৪. জীবনের প্রয়োগ: জীবনের কঠিন সময়ে বা দুশ্চিন্তার মুহূর্তে এই পদটি আমাদের ভরসা দেয় যে ঈশ্বর আমাদের পাশে আছেন।",
	},
}

// SeedBuiltins loads the starter songs and pre-cached studies. Safe to run on
// every startup; existing rows are left untouched.
func (s *SQLiteStore) SeedBuiltins() (int, error) {
	count := 0
	for i := range BuiltinSongs {
		song := BuiltinSongs[i]
		if err := s.CreateSong(&song); err != nil {
			return count, fmt.Errorf("failed to seed song %q: %w", song.Title, err)
		}
		count++
	}
	for i := range BuiltinStudies {
		study := BuiltinStudies[i]
		if err := s.SaveStudy(&study); err != nil {
			return count, fmt.Errorf("failed to seed study %q: %w", study.Reference, err)
		}
		count++
	}
	return count, nil
}
