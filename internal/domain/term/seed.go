package term

// SeedTerms returns the built-in starter dictionary. It backs read paths when
// no store is configured and is the default input for the bulk loader.
func SeedTerms() []Term {
	return []Term{
		{
			ID:         "1",
			Term:       "Hypertension",
			Definition: "A chronic medical condition in which the blood pressure in the arteries is persistently elevated.",
			Category:   CategoryDiagnosis,
			Code:       "I10",
			CodeSystem: CodeSystemICD10,
		},
		{
			ID:         "2",
			Term:       "Type 2 Diabetes Mellitus",
			Definition: "A metabolic disorder characterized by high blood sugar, insulin resistance, and relative lack of insulin.",
			Category:   CategoryDiagnosis,
			Code:       "E11",
			CodeSystem: CodeSystemICD10,
		},
		{
			ID:         "3",
			Term:       "Acute Myocardial Infarction",
			Definition: "Commonly known as a heart attack, occurs when blood flow decreases or stops to a part of the heart, causing damage to the heart muscle.",
			Category:   CategoryDiagnosis,
			Code:       "I21",
			CodeSystem: CodeSystemICD10,
		},
		{
			ID:         "4",
			Term:       "Pneumonia",
			Definition: "An inflammatory condition of the lung primarily affecting the alveoli, typically caused by infection.",
			Category:   CategoryDiagnosis,
			Code:       "J18.9",
			CodeSystem: CodeSystemICD10,
		},
		{
			ID:         "5",
			Term:       "Chronic Obstructive Pulmonary Disease",
			Definition: "A type of progressive lung disease characterized by long-term respiratory symptoms and airflow limitation.",
			Category:   CategoryDiagnosis,
			Code:       "J44",
			CodeSystem: CodeSystemICD10,
		},
		{
			ID:         "6",
			Term:       "Appendectomy",
			Definition: "A surgical operation to remove the appendix when it has become inflamed (appendicitis).",
			Category:   CategoryProcedure,
			Code:       "44950",
			CodeSystem: CodeSystemCPT,
		},
		{
			ID:         "7",
			Term:       "Colonoscopy",
			Definition: "An endoscopic examination of the large bowel and distal part of the small bowel using a camera on a flexible tube.",
			Category:   CategoryProcedure,
			Code:       "45378",
			CodeSystem: CodeSystemCPT,
		},
		{
			ID:         "8",
			Term:       "Magnetic Resonance Imaging",
			Definition: "A medical imaging technique using magnetic fields and radio waves to generate detailed images of organs and tissues.",
			Category:   CategoryProcedure,
			Code:       "70553",
			CodeSystem: CodeSystemCPT,
		},
		{
			ID:         "9",
			Term:       "Complete Blood Count",
			Definition: "A blood test used to evaluate overall health and detect a wide range of disorders, including anemia, infection, and leukemia.",
			Category:   CategoryLaboratory,
			Code:       "26604-2",
			CodeSystem: CodeSystemLOINC,
		},
		{
			ID:         "10",
			Term:       "Hemoglobin A1c",
			Definition: "A blood test that measures average blood sugar levels over the past 2-3 months, used to diagnose and monitor diabetes.",
			Category:   CategoryLaboratory,
			Code:       "4548-4",
			CodeSystem: CodeSystemLOINC,
		},
		{
			ID:         "11",
			Term:       "Basic Metabolic Panel",
			Definition: "A group of blood tests that measure electrolytes, blood sugar, and kidney function.",
			Category:   CategoryLaboratory,
			Code:       "24320-4",
			CodeSystem: CodeSystemLOINC,
		},
		{
			ID:         "12",
			Term:       "Lipid Panel",
			Definition: "A blood test that measures fats and fatty substances used as a source of energy by the body, including cholesterol and triglycerides.",
			Category:   CategoryLaboratory,
			Code:       "24331-1",
			CodeSystem: CodeSystemLOINC,
		},
		{
			ID:         "13",
			Term:       "Metformin",
			Definition: "A first-line medication for the treatment of type 2 diabetes, particularly in people who are overweight.",
			Category:   CategoryMedication,
			Code:       "6809",
			CodeSystem: CodeSystemRxNorm,
		},
		{
			ID:         "14",
			Term:       "Lisinopril",
			Definition: "An ACE inhibitor used to treat high blood pressure, heart failure, and after heart attacks.",
			Category:   CategoryMedication,
			Code:       "29046",
			CodeSystem: CodeSystemRxNorm,
		},
		{
			ID:         "15",
			Term:       "Atorvastatin",
			Definition: "A statin medication used to prevent cardiovascular disease and treat abnormal lipid levels.",
			Category:   CategoryMedication,
			Code:       "83367",
			CodeSystem: CodeSystemRxNorm,
		},
		{
			ID:         "16",
			Term:       "Left Ventricle",
			Definition: "One of four chambers of the heart, located in the bottom left portion, responsible for pumping oxygenated blood to the body.",
			Category:   CategoryAnatomy,
			Code:       "87878005",
			CodeSystem: CodeSystemSNOMED,
		},
		{
			ID:         "17",
			Term:       "Cerebral Cortex",
			Definition: "The outer layer of neural tissue of the cerebrum, playing a key role in memory, attention, perception, and cognition.",
			Category:   CategoryAnatomy,
			Code:       "16973008",
			CodeSystem: CodeSystemSNOMED,
		},
		{
			ID:         "18",
			Term:       "Dyspnea",
			Definition: "Difficult or labored breathing, commonly known as shortness of breath.",
			Category:   CategorySymptom,
			Code:       "267036007",
			CodeSystem: CodeSystemSNOMED,
		},
		{
			ID:         "19",
			Term:       "Tachycardia",
			Definition: "A heart rate that exceeds the normal resting rate, generally over 100 beats per minute in adults.",
			Category:   CategorySymptom,
			Code:       "3424008",
			CodeSystem: CodeSystemSNOMED,
		},
		{
			ID:         "20",
			Term:       "Edema",
			Definition: "Swelling caused by excess fluid trapped in the body's tissues.",
			Category:   CategorySymptom,
			Code:       "79654002",
			CodeSystem: CodeSystemSNOMED,
		},
	}
}
