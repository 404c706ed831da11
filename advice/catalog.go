package advice

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys shared by the advice and the form page.
const (
	KeyTitle          = "title"
	KeyIntro          = "intro"
	KeyInputHeading   = "input.heading"
	KeyTuitionFees    = "field.tuition_fees"
	KeyFeesPaid       = "field.tuition_fees.paid"
	KeyFeesOverdue    = "field.tuition_fees.overdue"
	KeyScholarship    = "field.scholarship"
	KeyYes            = "yes"
	KeyNo             = "no"
	KeyAge            = "field.age"
	KeySem1Approved   = "field.sem1_approved"
	KeySem1Grade      = "field.sem1_grade"
	KeySem2Approved   = "field.sem2_approved"
	KeySem2Grade      = "field.sem2_grade"
	KeySubmit         = "submit"
	KeyResultHeading  = "result.heading"
	KeyConfidence     = "result.confidence"
	KeyModelMissing   = "model.missing"
	KeyInvalidInput   = "input.invalid"
	KeyAdviceDropout  = "advice.dropout"
	KeyAdviceEnrolled = "advice.enrolled"
	KeyAdviceGraduate = "advice.graduate"
)

var supported = []language.Tag{language.English, language.Indonesian}

var messages = map[language.Tag]map[string]string{
	language.English: {
		KeyTitle:          "Student Academic Success Prediction",
		KeyIntro:          "This application uses a Support Vector Machine (SVM) to predict whether a student will graduate, drop out or remain enrolled.",
		KeyInputHeading:   "Student data",
		KeyTuitionFees:    "Tuition fee status",
		KeyFeesPaid:       "Up to date",
		KeyFeesOverdue:    "Overdue",
		KeyScholarship:    "Scholarship holder",
		KeyYes:            "Yes",
		KeyNo:             "No",
		KeyAge:            "Age at enrollment",
		KeySem1Approved:   "Credits passed (semester 1)",
		KeySem1Grade:      "Average grade (semester 1)",
		KeySem2Approved:   "Credits passed (semester 2)",
		KeySem2Grade:      "Average grade (semester 2)",
		KeySubmit:         "Predict status",
		KeyResultHeading:  "Prediction result:",
		KeyConfidence:     "Model confidence: %.2f%%",
		KeyModelMissing:   "The model is not loaded. Make sure the trained model file exists and restart the service.",
		KeyInvalidInput:   "Some values are out of range.",
		KeyAdviceDropout:  "This student is at high risk of dropping out. Counselling is advised as soon as possible.",
		KeyAdviceEnrolled: "This student is still active but their progress should be monitored.",
		KeyAdviceGraduate: "This student is performing well and is predicted to graduate.",
	},
	language.Indonesian: {
		KeyTitle:          "Prediksi Keberhasilan Akademik Mahasiswa",
		KeyIntro:          "Aplikasi ini menggunakan algoritma Support Vector Machine (SVM) untuk memprediksi apakah mahasiswa akan Lulus, Dropout, atau Masih Aktif.",
		KeyInputHeading:   "Masukkan Data Mahasiswa",
		KeyTuitionFees:    "Status Pembayaran SPP",
		KeyFeesPaid:       "Lancar",
		KeyFeesOverdue:    "Menunggak",
		KeyScholarship:    "Penerima Beasiswa",
		KeyYes:            "Ya",
		KeyNo:             "Tidak",
		KeyAge:            "Umur saat Mendaftar",
		KeySem1Approved:   "SKS Lulus (Semester 1)",
		KeySem1Grade:      "Nilai Rata-rata (Semester 1)",
		KeySem2Approved:   "SKS Lulus (Semester 2)",
		KeySem2Grade:      "Nilai Rata-rata (Semester 2)",
		KeySubmit:         "Prediksi Status",
		KeyResultHeading:  "Hasil Prediksi:",
		KeyConfidence:     "Tingkat Keyakinan Model: %.2f%%",
		KeyModelMissing:   "Model belum dimuat. Pastikan file model hasil pelatihan tersedia lalu jalankan ulang layanan.",
		KeyInvalidInput:   "Beberapa nilai berada di luar rentang.",
		KeyAdviceDropout:  "Mahasiswa ini berisiko tinggi putus kuliah. Disarankan untuk memberikan bimbingan konseling segera.",
		KeyAdviceEnrolled: "Mahasiswa ini masih aktif namun perlu dipantau perkembangannya.",
		KeyAdviceGraduate: "Mahasiswa ini memiliki performa yang baik dan diprediksi akan lulus.",
	},
}

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range messages {
		for key, text := range entries {
			if err := b.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
	return b
}
